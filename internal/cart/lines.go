package cart

import "egadget-storefront/internal/models"

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// addLine merges by product id; the resulting quantity stays within
// [1, stock].
func addLine(c models.Cart, product models.Product, quantity int) models.Cart {
	for i, line := range c.Items {
		if line.Product.ID == product.ID {
			c.Items[i].Quantity = clamp(line.Quantity+quantity, 1, product.Stock)
			return c
		}
	}
	c.Items = append(c.Items, models.LocalLine(product, clamp(quantity, 1, product.Stock)))
	return c
}

func removeLine(c models.Cart, productID string) models.Cart {
	kept := c.Items[:0]
	for _, line := range c.Items {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	c.Items = kept
	return c
}

func setQuantity(c models.Cart, productID string, quantity int) models.Cart {
	for i, line := range c.Items {
		if line.Product.ID == productID {
			c.Items[i].Quantity = clamp(quantity, 0, line.Product.Stock)
		}
	}
	return c
}

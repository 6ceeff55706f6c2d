package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"egadget-storefront/internal/cart"
	"egadget-storefront/internal/catalog"
	"egadget-storefront/internal/checkout"
	"egadget-storefront/internal/models"
)

// runCartCmd implements `storefront cart <show|add|update|remove|clear>`.
func runCartCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return showCart(a, false, stdout)
	}

	switch args[0] {
	case "show":
		cmd := flag.NewFlagSet("cart show", flag.ContinueOnError)
		cmd.SetOutput(stderr)
		jsonOutput := cmd.Bool("json", false, "Output as JSON")
		if err := cmd.Parse(args[1:]); err != nil {
			return 2
		}
		return showCart(a, *jsonOutput, stdout)
	case "add":
		return runCartAdd(ctx, a, args[1:], stdout, stderr)
	case "update":
		return runCartUpdate(ctx, a, args[1:], stdout, stderr)
	case "remove":
		return runCartRemove(ctx, a, args[1:], stdout, stderr)
	case "clear":
		return cartResult(a, a.cart.Clear(ctx), stdout, stderr, "Cart cleared.")
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown cart command: %s\n", args[0])
		_, _ = fmt.Fprintln(stderr, "Usage: storefront cart <show|add|update|remove|clear>")
		return 2
	}
}

func showCart(a *app, jsonOutput bool, stdout io.Writer) int {
	snapshot := a.cart.Snapshot()
	if jsonOutput {
		return printJSON(stdout, snapshot)
	}
	if len(snapshot.Items) == 0 {
		_, _ = fmt.Fprintln(stdout, "Your cart is empty.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, line := range snapshot.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			line.Product.ID, line.Product.Name, peso(line.Product.Price), line.Quantity, peso(line.Subtotal()))
	}
	_ = tw.Flush()

	totals := checkout.ComputeTotals(snapshot.Total())
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintf(stdout, "Items:    %d\n", snapshot.Count())
	_, _ = fmt.Fprintf(stdout, "Subtotal: %s\n", peso(totals.Subtotal))
	_, _ = fmt.Fprintf(stdout, "Tax:      %s\n", peso(totals.Tax))
	if totals.Shipping == 0 {
		_, _ = fmt.Fprintln(stdout, "Shipping: Free")
	} else {
		_, _ = fmt.Fprintf(stdout, "Shipping: %s\n", peso(totals.Shipping))
	}
	_, _ = fmt.Fprintf(stdout, "Total:    %s\n", peso(totals.Total))
	return 0
}

func lookupProduct(ctx context.Context, a *app, id string, stderr io.Writer) (models.Product, int) {
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return models.Product{}, 2
	}
	p, err := a.catalog.Product(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		_, _ = fmt.Fprintf(stderr, "Product %s not found.\n", id)
		return models.Product{}, 1
	}
	if err != nil {
		return models.Product{}, fail(stderr, err)
	}
	return p, 0
}

func cartResult(a *app, err error, stdout, stderr io.Writer, msg string) int {
	if errors.Is(err, cart.ErrOutOfStock) {
		_, _ = fmt.Fprintln(stderr, "Error: this product is out of stock")
		return 1
	}
	if err != nil {
		return fail(stderr, err)
	}
	_, _ = fmt.Fprintln(stdout, msg)
	if a.cart.Detached() {
		_, _ = fmt.Fprintln(stderr, "Warning: the storefront API is unreachable; this change only lasts for the current command.")
	}
	return 0
}

func runCartAdd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("cart add", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	var qty int
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")
	cmd.IntVar(&qty, "qty", 1, "Quantity")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	p, code := lookupProduct(ctx, a, id, stderr)
	if code != 0 {
		return code
	}
	return cartResult(a, a.cart.Add(ctx, p, qty), stdout, stderr, fmt.Sprintf("Added %s to your cart.", p.Name))
}

func runCartUpdate(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("cart update", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	var qty int
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")
	cmd.IntVar(&qty, "qty", 0, "New quantity, at least 1 (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}
	if qty < 1 {
		_, _ = fmt.Fprintln(stderr, "Error: --qty must be at least 1; use `cart remove` to drop a line")
		return 2
	}
	if _, ok := a.cart.Snapshot().Find(id); !ok {
		_, _ = fmt.Fprintf(stderr, "Product %s is not in your cart.\n", id)
		return 1
	}
	return cartResult(a, a.cart.UpdateQuantity(ctx, id, qty), stdout, stderr, "Cart updated.")
}

func runCartRemove(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("cart remove", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}
	return cartResult(a, a.cart.Remove(ctx, id), stdout, stderr, "Removed from cart.")
}

// runBuyNowCmd orders one product straight away. The cart is replaced by
// that single line and checked out in the same invocation.
func runBuyNowCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("buy-now", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	var qty int
	var f checkoutFlags
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")
	cmd.IntVar(&qty, "qty", 1, "Quantity")
	f.register(cmd)

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	p, code := lookupProduct(ctx, a, id, stderr)
	if code != 0 {
		return code
	}
	method, code := f.prepare(a, stderr)
	if code != 0 {
		return code
	}

	err := a.cart.BuyNow(ctx, p, qty)
	if errors.Is(err, cart.ErrOutOfStock) {
		_, _ = fmt.Fprintln(stderr, "Error: this product is out of stock")
		return 1
	}
	if err != nil {
		return fail(stderr, err)
	}
	return placeOrder(ctx, a, &f, method, stdout, stderr)
}

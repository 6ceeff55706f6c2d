package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"egadget-storefront/internal/checkout"
	"egadget-storefront/internal/models"
)

// checkoutFlags are shared by checkout and buy-now.
type checkoutFlags struct {
	addr       models.Address
	payment    string
	gcashPhone string
	otp        string
}

func (f *checkoutFlags) register(cmd *flag.FlagSet) {
	cmd.StringVar(&f.payment, "payment", "cod", "gcash | cod | card")
	cmd.StringVar(&f.addr.FullName, "name", "", "Recipient full name")
	cmd.StringVar(&f.addr.Phone, "phone", "", "Contact phone")
	cmd.StringVar(&f.addr.Email, "email", "", "Contact email")
	cmd.StringVar(&f.addr.Street, "street", "", "Street address")
	cmd.StringVar(&f.addr.Barangay, "barangay", "", "Barangay")
	cmd.StringVar(&f.addr.Municipality, "municipality", "", "City or municipality")
	cmd.StringVar(&f.addr.Province, "province", "", "Province")
	cmd.StringVar(&f.addr.Region, "region", "", "Region")
	cmd.StringVar(&f.addr.IslandGroup, "island-group", "", "Luzon | Visayas | Mindanao")
	cmd.StringVar(&f.addr.PostalCode, "postal-code", "", "Postal code (optional)")
	cmd.StringVar(&f.gcashPhone, "gcash-phone", "", "GCash mobile number (gcash only)")
	cmd.StringVar(&f.otp, "otp", "", "One-time PIN sent by GCash (gcash only)")
}

// prepare fills contact details from the signed-in user and checks the
// payment method and address. A non-zero code means the caller should stop.
func (f *checkoutFlags) prepare(a *app, stderr io.Writer) (models.PaymentMethod, int) {
	if u := a.session.User(); u != nil {
		if f.addr.FullName == "" {
			f.addr.FullName = u.Name
		}
		if f.addr.Email == "" {
			f.addr.Email = u.Email
		}
		if f.addr.Phone == "" {
			f.addr.Phone = u.Phone
		}
	}

	method, ok := models.ParsePaymentMethod(f.payment)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Error: unknown payment method %q\n", f.payment)
		return "", 2
	}
	if err := checkout.ValidateAddress(f.addr); err != nil {
		return "", fail(stderr, err)
	}
	return method, 0
}

func runCheckoutCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("checkout", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var f checkoutFlags
	f.register(cmd)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	method, code := f.prepare(a, stderr)
	if code != 0 {
		return code
	}
	return placeOrder(ctx, a, &f, method, stdout, stderr)
}

// placeOrder runs the payment step when needed and turns the current cart
// into an order.
func placeOrder(ctx context.Context, a *app, f *checkoutFlags, method models.PaymentMethod, stdout, stderr io.Writer) int {
	if len(a.cart.Snapshot().Items) == 0 {
		_, _ = fmt.Fprintln(stderr, "Your cart is empty.")
		return 1
	}

	req := checkout.Request{Address: f.addr, PaymentMethod: method}
	if method == models.PaymentGCash {
		flow := checkout.NewGCashFlow(func() {
			_, _ = fmt.Fprintln(stdout, "GCash payment confirmed.")
		}, a.cfg.DelayScale)
		if err := flow.SubmitPhone(ctx, f.gcashPhone); err != nil {
			return fail(stderr, err)
		}
		_, _ = fmt.Fprintf(stdout, "OTP sent to %s.\n", flow.Phone())
		if err := flow.SubmitOTP(ctx, f.otp); err != nil {
			return fail(stderr, err)
		}
		req.Payment = flow
	}

	order, err := a.checkout.PlaceOrder(ctx, req)
	if errors.Is(err, checkout.ErrEmptyCart) {
		_, _ = fmt.Fprintln(stderr, "Your cart is empty.")
		return 1
	}
	if err != nil {
		return fail(stderr, err)
	}

	_, _ = fmt.Fprintf(stdout, "Order #%s placed. Total %s via %s.\n", order.ID, peso(order.Total), order.PaymentMethod)
	return 0
}

func runOrdersCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("orders", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOutput := cmd.Bool("json", false, "Output as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	orders, err := a.orders.List(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	if *jsonOutput {
		return printJSON(stdout, orders)
	}
	if len(orders) == 0 {
		_, _ = fmt.Fprintln(stdout, "You have no orders yet.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORDER\tDATE\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		_, _ = fmt.Fprintf(tw, "#%s\t%s\t%s\t%d\t%s\n", o.ID, o.Date.Format("Jan 2, 2006"), o.Status, len(o.Items), peso(o.Total))
	}
	_ = tw.Flush()
	return 0
}

func runOrderCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("order", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	var jsonOutput bool
	cmd.StringVar(&id, "id", "", "Order id (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}

	o, err := a.orders.Get(ctx, id)
	if errors.Is(err, checkout.ErrOrderNotFound) {
		_, _ = fmt.Fprintf(stderr, "Order #%s not found.\n", id)
		return 1
	}
	if err != nil {
		return fail(stderr, err)
	}
	if jsonOutput {
		return printJSON(stdout, o)
	}

	_, _ = fmt.Fprintf(stdout, "Order #%s (%s)\n", o.ID, o.Status)
	_, _ = fmt.Fprintf(stdout, "Placed %s, paid via %s\n\n", o.Date.Format("Jan 2, 2006 15:04"), o.PaymentMethod)
	for _, item := range o.Items {
		_, _ = fmt.Fprintf(stdout, "  %dx %s  %s\n", item.Quantity, item.Name, peso(item.Price*float64(item.Quantity)))
	}
	_, _ = fmt.Fprintf(stdout, "\nSubtotal: %s\nTax:      %s\nShipping: %s\nTotal:    %s\n",
		peso(o.Subtotal), peso(o.Tax), peso(o.Shipping), peso(o.Total))
	_, _ = fmt.Fprintf(stdout, "\nShip to: %s, %s, %s, %s, %s\n",
		o.Address.FullName, o.Address.Street, o.Address.Barangay, o.Address.Municipality, o.Address.Province)
	if o.RefundReason != "" {
		_, _ = fmt.Fprintf(stdout, "Refund reason: %s\n", o.RefundReason)
	}
	return 0
}

func runRefundCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("refund", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id, reason string
	cmd.StringVar(&id, "id", "", "Order id (REQUIRED)")
	cmd.StringVar(&reason, "reason", "", "Why you want a refund (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}

	o, err := a.orders.RequestRefund(ctx, id, reason)
	switch {
	case errors.Is(err, checkout.ErrOrderNotFound):
		_, _ = fmt.Fprintf(stderr, "Order #%s not found.\n", id)
		return 1
	case errors.Is(err, checkout.ErrRefundNotAllowed):
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	case err != nil:
		return fail(stderr, err)
	}

	_, _ = fmt.Fprintf(stdout, "Refund requested for order #%s.\n", o.ID)
	return 0
}

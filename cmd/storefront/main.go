package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"egadget-storefront/internal/config"
)

type command func(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int

var commands = map[string]command{
	"login":          runLoginCmd,
	"register":       runRegisterCmd,
	"logout":         runLogoutCmd,
	"whoami":         runWhoamiCmd,
	"profile":        runProfileCmd,
	"reset-password": runResetPasswordCmd,
	"products":       runProductsCmd,
	"product":        runProductCmd,
	"review":         runReviewCmd,
	"cart":           runCartCmd,
	"buy-now":        runBuyNowCmd,
	"checkout":       runCheckoutCmd,
	"orders":         runOrdersCmd,
	"order":          runOrderCmd,
	"refund":         runRefundCmd,
}

// loadConfig is a variable so tests can supply their own configuration.
var loadConfig = config.NewConfig

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	setupLogging(stderr)

	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	return cmd(ctx, a, args[1:], stdout, stderr)
}

// setupLogging sends structured logs to stderr so stdout stays readable.
// LOG_LEVEL picks the level; warnings and errors are shown by default.
func setupLogging(stderr io.Writer) {
	level := slog.LevelWarn
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelWarn
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})))
}

func printUsage(w io.Writer) {
	sections := []struct {
		title string
		cmds  [][2]string
	}{
		{"ACCOUNT", [][2]string{
			{"login", "Sign in (--email, --password)"},
			{"register", "Create an account (--name, --email, --password)"},
			{"logout", "Sign out"},
			{"whoami", "Show the signed-in user"},
			{"profile", "Show or update profile details (--name, --email, --phone, --address)"},
			{"reset-password", "Request a password reset link (--email)"},
		}},
		{"SHOP", [][2]string{
			{"products", "Browse products (--category, --brand, --min-price, --max-price, --min-rating, --search, --sort)"},
			{"product", "Show one product (--id)"},
			{"review", "Review a product (--id, --rating, --comment)"},
			{"cart", "Manage the cart: show | add | update | remove | clear"},
			{"buy-now", "Order a single product now (--id, --qty, plus checkout flags)"},
		}},
		{"ORDERS", [][2]string{
			{"checkout", "Place an order (--payment gcash|cod|card and address flags)"},
			{"orders", "List placed orders"},
			{"order", "Show one order (--id)"},
			{"refund", "Request a refund (--id, --reason)"},
		}},
	}

	_, _ = fmt.Fprintln(w, "eGadget storefront")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "USAGE:")
	_, _ = fmt.Fprintln(w, "  storefront <command> [flags]")
	for _, s := range sections {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintf(w, "%s:\n", s.title)
		for _, c := range s.cmds {
			_, _ = fmt.Fprintf(w, "  %-16s %s\n", c[0], c[1])
		}
	}
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "ENVIRONMENT:")
	_, _ = fmt.Fprintln(w, "  "+strings.Join([]string{
		"STOREFRONT_API_URL", "STOREFRONT_STORAGE", "STOREFRONT_FALLBACK", "STOREFRONT_CONFIG", "LOG_LEVEL",
	}, ", "))
}

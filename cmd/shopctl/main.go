// Command shopctl is a terminal storefront client: browse the catalog, keep a
// cart and wishlist on disk, and check out through the hosted payment page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apiclient"
	"github.com/01moynul/storefront-golang/internal/cart"
)

const usage = `usage: shopctl [flags] <command> [command flags]

commands:
  register   -name -email -password
  login      -email -password
  products   [-q keyword] [-category c] [-page n]
  cart       list | add -id n [-qty n] | remove -id n | clear
  wishlist   list | add -id n | remove -id n
  checkout   -address -city -postal -country [-email e] [-reference r]
  orders
`

// app is the state shared by every command.
type app struct {
	api     *apiclient.Client
	storage cart.Storage
	logger  *logrus.Logger
	in      io.Reader
	out     io.Writer

	scriptURL     string
	navigateDelay time.Duration
}

func main() {
	home, _ := os.UserHomeDir()

	var (
		apiURL    string
		statePath string
		scriptURL string
		logLevel  string
	)
	flag.StringVar(&apiURL, "api", envOr("SHOP_API_URL", "http://localhost:8080/api"), "Storefront API base URL")
	flag.StringVar(&statePath, "state", filepath.Join(home, ".shopctl", "state.json"), "Local state file (cart, wishlist, token)")
	flag.StringVar(&scriptURL, "script-url", "https://js.paystack.co/v1/inline.js", "Payment script to preload; empty skips it")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		logger.SetLevel(level)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	a := &app{
		api:           apiclient.New(apiURL, 30*time.Second, logger),
		storage:       cart.NewFileStorage(statePath),
		logger:        logger,
		in:            os.Stdin,
		out:           os.Stdout,
		scriptURL:     scriptURL,
		navigateDelay: 1500 * time.Millisecond,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Args()); err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", apiErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *app) run(ctx context.Context, args []string) error {
	if err := a.restoreToken(); err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "products":
		return a.products(ctx, rest)
	case "cart":
		return a.cart(ctx, rest)
	case "wishlist":
		return a.wishlist(ctx, rest)
	case "checkout":
		return a.checkout(ctx, rest)
	case "orders":
		return a.orders(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) restoreToken() error {
	var token string
	found, err := a.storage.Get(cart.TokenKey, &token)
	if err != nil {
		return err
	}
	if found {
		a.api.SetToken(token)
	}
	return nil
}

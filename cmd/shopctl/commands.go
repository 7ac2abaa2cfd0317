package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/01moynul/storefront-golang/internal/apiclient"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/checkoutflow"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

var errNotLoggedIn = errors.New("not logged in; run shopctl login first")

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// --- Account ---

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (min 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.api.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	if err := a.storage.Set(cart.TokenKey, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", res.User.Name)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.storage.Set(cart.TokenKey, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", res.User.Email)
	return nil
}

// --- Catalog ---

func (a *app) products(ctx context.Context, args []string) error {
	fs := a.flags("products")
	keyword := fs.String("q", "", "Search keyword")
	category := fs.String("category", "", "Category")
	page := fs.Int("page", 1, "Page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.api.ListProducts(ctx, apiclient.ProductQuery{Keyword: *keyword, Category: *category, Page: *page})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
	for _, p := range result.Products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f (%d)\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Rating, p.NumReviews)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d, %d products\n", result.Page, result.Pages, result.Total)
	return nil
}

func (a *app) item(ctx context.Context, id int64, qty int) (models.CartItem, error) {
	p, err := a.api.GetProduct(ctx, id)
	if err != nil {
		return models.CartItem{}, err
	}
	return models.CartItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Quantity: qty}, nil
}

// --- Cart & Wishlist ---

func (a *app) cart(ctx context.Context, args []string) error {
	c, err := cart.LoadCart(a.storage)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "list" {
		return a.printCart(ctx, c)
	}

	fs := a.flags("cart " + args[0])
	id := fs.Int64("id", 0, "Product id")
	qty := fs.Int("qty", 1, "Quantity")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		item, err := a.item(ctx, *id, *qty)
		if err != nil {
			return err
		}
		c.Add(item)
		fmt.Fprintf(a.out, "Added %s to cart\n", item.Name)
	case "remove":
		if !c.Remove(*id) {
			return fmt.Errorf("product %d is not in the cart", *id)
		}
	case "clear":
		c.Clear()
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
	return cart.SaveCart(a.storage, c)
}

func (a *app) policy(ctx context.Context) pricing.Policy {
	policy, err := a.api.Pricing(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Could not fetch pricing policy, using defaults")
		return pricing.DefaultPolicy()
	}
	return policy
}

func (a *app) printCart(ctx context.Context, c *cart.Cart) error {
	if c.IsEmpty() {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE")
	for _, item := range c.Items() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", item.ProductID, item.Name, item.Quantity, item.Price.StringFixed(2))
	}
	q := c.Quote(a.policy(ctx))
	fmt.Fprintf(tw, "\t\tItems\t%s\n", q.ItemsPrice.StringFixed(2))
	fmt.Fprintf(tw, "\t\tTax\t%s\n", q.TaxPrice.StringFixed(2))
	fmt.Fprintf(tw, "\t\tShipping\t%s\n", q.ShippingPrice.StringFixed(2))
	fmt.Fprintf(tw, "\t\tTotal\t%s\n", q.TotalPrice.StringFixed(2))
	return tw.Flush()
}

func (a *app) wishlist(ctx context.Context, args []string) error {
	w, err := cart.LoadWishlist(a.storage)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "list" {
		for _, item := range w.Items() {
			fmt.Fprintf(a.out, "%d\t%s\t%s\n", item.ProductID, item.Name, item.Price.StringFixed(2))
		}
		return nil
	}

	fs := a.flags("wishlist " + args[0])
	id := fs.Int64("id", 0, "Product id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		item, err := a.item(ctx, *id, 1)
		if err != nil {
			return err
		}
		if !w.Add(item) {
			fmt.Fprintf(a.out, "%s is already in your wishlist\n", item.Name)
			return nil
		}
	case "remove":
		if !w.Remove(*id) {
			return fmt.Errorf("product %d is not in the wishlist", *id)
		}
	default:
		return fmt.Errorf("unknown wishlist command %q", args[0])
	}
	return cart.SaveWishlist(a.storage, w)
}

// --- Checkout ---

// terminalWidget stands in for the hosted payment popup: it prints the
// payment page URL and waits for the reference the gateway shows on completion.
type terminalWidget struct {
	app       *app
	flow      *checkoutflow.Flow
	reference string
	order     *models.Order
	err       error
}

func (w *terminalWidget) Open(ctx context.Context, auth paystack.Authorization) error {
	fmt.Fprintf(w.app.out, "Complete your payment at:\n  %s\n", auth.AuthorizationURL)

	reference := w.reference
	if reference == "" {
		fmt.Fprintf(w.app.out, "Press Enter once paid (reference %s), or type \"cancel\": ", auth.Reference)
		line, err := bufio.NewReader(w.app.in).ReadString('\n')
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "cancel") || (err != nil && line == "") {
			return w.flow.Close()
		}
		reference = auth.Reference
		if line != "" {
			reference = line
		}
	}

	w.order, w.err = w.flow.Complete(ctx, reference)
	return nil
}

type terminalNotifier struct{ app *app }

func (n terminalNotifier) Success(msg string) { fmt.Fprintln(n.app.out, msg) }
func (n terminalNotifier) Info(msg string)    { fmt.Fprintln(n.app.out, msg) }
func (n terminalNotifier) Error(msg string)   { fmt.Fprintln(n.app.out, "Payment failed: "+msg) }

type terminalNavigator struct {
	app  *app
	done chan struct{}
}

func (n terminalNavigator) Navigate(path string) {
	fmt.Fprintf(n.app.out, "Order details: %s\n", path)
	close(n.done)
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := a.flags("checkout")
	email := fs.String("email", "", "Email for the payment receipt (defaults to your account email)")
	address := fs.String("address", "", "Street address")
	city := fs.String("city", "", "City")
	postal := fs.String("postal", "", "Postal code")
	country := fs.String("country", "", "Country")
	reference := fs.String("reference", "", "Payment reference to verify without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.api.Token() == "" {
		return errNotLoggedIn
	}

	// 1. --- Who is paying, for what ---
	me, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	c, err := cart.LoadCart(a.storage)
	if err != nil {
		return err
	}

	// 2. --- Wire the flow to the terminal ---
	var loader checkoutflow.ScriptLoader
	if a.scriptURL != "" {
		loader = checkoutflow.Once(checkoutflow.FetchScript(&http.Client{Timeout: 10 * time.Second}, a.scriptURL))
	}
	widget := &terminalWidget{app: a, reference: *reference}
	navigator := terminalNavigator{app: a, done: make(chan struct{})}
	flow := checkoutflow.New(checkoutflow.Options{
		API:           a.api,
		Loader:        loader,
		Widget:        widget,
		Notifier:      terminalNotifier{app: a},
		Navigator:     navigator,
		Cart:          c,
		Storage:       a.storage,
		Policy:        a.policy(ctx),
		AccountEmail:  me.Email,
		NavigateDelay: a.navigateDelay,
		Logger:        a.logger,
	})
	widget.flow = flow
	flow.OnTransition(func(from, to checkoutflow.State) {
		a.logger.WithField("from", from.String()).WithField("to", to.String()).Debug("Checkout")
	})

	// 3. --- Run it ---
	_, err = flow.Submit(ctx, checkoutflow.Form{
		Email: *email,
		ShippingAddress: models.ShippingAddress{
			Address:    *address,
			City:       *city,
			PostalCode: *postal,
			Country:    *country,
		},
	})
	if err != nil {
		return err
	}
	if widget.err != nil {
		return widget.err
	}

	if flow.State() == checkoutflow.Succeeded {
		select {
		case <-navigator.done:
		case <-time.After(a.navigateDelay + time.Second):
		case <-ctx.Done():
		}
	}
	return nil
}

func (a *app) orders(ctx context.Context) error {
	if a.api.Token() == "" {
		return errNotLoggedIn
	}
	orders, err := a.api.MyOrders(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLACED\tSTATUS\tPAID\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02"), o.Status, o.IsPaid, o.TotalPrice.StringFixed(2))
	}
	return tw.Flush()
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/storefront/checkout"
)

type appFn func() *app

func newLoginCmd(get appFn) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and load the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "logged in as %s, %d item(s) in cart\n", a.session.User().GetDisplayName(), a.session.Cart().Count())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(get appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			get().session.Logout()
			fmt.Fprintln(get().out, "logged out")
			return nil
		},
	}
}

func newRegisterCmd(get appFn) *cobra.Command {
	var req user.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.session.Register(cmd.Context(), &req); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %s\n", req.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("first-name")
	return cmd
}

func newProductsCmd(get appFn) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			resp, err := a.session.Client().Products(cmd.Context(), page, limit)
			if err != nil {
				return err
			}

			conv := a.session.Converter()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
			for _, p := range resp.Products {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Name, a.money(conv.Convert(p.Price)), p.Stock)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "items per page")
	return cmd
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return uint(id), nil
}

func newCartCmd(get appFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			return printCart(a)
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !a.session.IsAuthenticated() {
				return a.session.Cart().AddItem(cmd.Context(), cart.ProductSummary{ID: id}, qty)
			}
			p, err := a.session.Client().Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			summary := cart.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
			if err := a.session.Cart().AddItem(cmd.Context(), summary, qty); err != nil {
				return err
			}
			return printCart(a)
		},
	}
	add.Flags().IntVarP(&qty, "quantity", "q", 1, "units to add")

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set a line's quantity, 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := a.session.Cart().UpdateQuantity(cmd.Context(), id, n); err != nil {
				return err
			}
			return printCart(a)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.session.Cart().RemoveItem(cmd.Context(), id); err != nil {
				return err
			}
			return printCart(a)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().session.Cart().Clear(cmd.Context())
		},
	}

	cmd.AddCommand(add, update, remove, clearCmd)
	return cmd
}

func printCart(a *app) error {
	items := a.session.Cart().Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}

	q := a.session.Checkout().Quote()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tLINE")
	for _, it := range q.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", it.Product, it.Name, it.Quantity, a.money(it.Price), a.money(line))
	}
	fmt.Fprintf(tw, "\t\t\tSubtotal\t%s\n", a.money(q.Totals.Subtotal))
	fmt.Fprintf(tw, "\t\t\tShipping\t%s\n", a.money(q.Totals.Shipping))
	fmt.Fprintf(tw, "\t\t\tTax\t%s\n", a.money(q.Totals.Tax))
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", a.money(q.Totals.Total))
	return tw.Flush()
}

func newBillingCmd(get appFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Show the billing address",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			printAddress(a, a.session.Billing().Address())
			return nil
		},
	}

	var addr user.Address
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the billing address, unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			merged := a.session.Billing().Address()
			fields := map[string]*string{
				"first-name": &merged.FirstName, "last-name": &merged.LastName, "company": &merged.CompanyName,
				"street": &merged.StreetAddress, "country": &merged.Country, "state": &merged.State,
				"zip": &merged.ZipCode, "email": &merged.Email, "phone": &merged.Phone,
			}
			for name, dst := range fields {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					*dst = v
				}
			}
			if err := a.session.Billing().Save(cmd.Context(), merged); err != nil {
				return err
			}
			printAddress(a, a.session.Billing().Address())
			return nil
		},
	}
	set.Flags().StringVar(&addr.FirstName, "first-name", "", "first name")
	set.Flags().StringVar(&addr.LastName, "last-name", "", "last name")
	set.Flags().StringVar(&addr.CompanyName, "company", "", "company name")
	set.Flags().StringVar(&addr.StreetAddress, "street", "", "street address")
	set.Flags().StringVar(&addr.Country, "country", "", "country")
	set.Flags().StringVar(&addr.State, "state", "", "state")
	set.Flags().StringVar(&addr.ZipCode, "zip", "", "zip code")
	set.Flags().StringVar(&addr.Email, "email", "", "email address")
	set.Flags().StringVar(&addr.Phone, "phone", "", "phone number")

	cmd.AddCommand(set)
	return cmd
}

func printAddress(a *app, addr user.Address) {
	fmt.Fprintf(a.out, "%s %s\n%s\n%s, %s %s\n%s | %s\n",
		addr.FirstName, addr.LastName, addr.StreetAddress, addr.State, addr.Country, addr.ZipCode, addr.Email, addr.Phone)
	if missing := addr.MissingFields(); len(missing) > 0 {
		fmt.Fprintf(a.out, "missing: %v\n", missing)
	}
}

func newCheckoutCmd(get appFn) *cobra.Command {
	var payment string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}

			placed, err := a.session.Checkout().PlaceOrder(cmd.Context(), order.PaymentMethod(payment))
			if err != nil {
				var verr *checkout.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("billing address incomplete, run `storefront billing set`: %w", err)
				}
				return err
			}

			fmt.Fprintf(a.out, "order %s total %s\n", placed.OrderNumber, placed.Total.StringFixed(2)+" "+placed.Currency)
			select {
			case <-a.nav.done:
			case <-time.After(a.cfg.Storefront.RedirectDelay + time.Second):
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&payment, "payment", string(order.PaymentCashOnDelivery), "CashOnDelivery, PayPal or AmazonPay")
	return cmd
}

func newOrdersCmd(get appFn) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			resp, err := a.session.Client().Orders(cmd.Context(), page, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tDATE\tSTATUS\tTOTAL")
			for _, o := range resp.Orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\n", o.OrderNumber, o.CreatedAt.Format("2006-01-02"), o.Status, o.Total.StringFixed(2), o.Currency)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "orders per page")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/logger"
	"github.com/agroreach/storefront/internal/storefront/api"
	"github.com/agroreach/storefront/internal/storefront/notify"
	"github.com/agroreach/storefront/internal/storefront/session"
)

// app is shared by every command of one invocation
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	session *session.Session
	out     io.Writer
	nav     *terminalNavigator
}

type terminalNavigator struct {
	out  io.Writer
	done chan string
}

func (n *terminalNavigator) Navigate(route string) {
	fmt.Fprintf(n.out, "-> %s\n", route)
	select {
	case n.done <- route:
	default:
	}
}

func printNotification(out io.Writer) notify.Listener {
	return func(note notify.Notification) {
		switch note.Level {
		case notify.LevelAlert:
			fmt.Fprintf(out, "! %s\n", note.Message)
		default:
			fmt.Fprintf(out, "* %s\n", note.Message)
		}
	}
}

type globalFlags struct {
	apiURL   string
	currency string
	verbose  bool
}

func (g *globalFlags) bootstrap(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.apiURL != "" {
		cfg.Storefront.APIBaseURL = g.apiURL
	}
	if g.currency != "" {
		cfg.Storefront.DisplayCurrency = strings.ToUpper(g.currency)
	}
	if err := cfg.ValidateStorefront(); err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Format = "text"
	if !g.verbose {
		logCfg.Level = "warn"
	}
	log := logger.NewWithOutput(logCfg, os.Stderr)

	nav := &terminalNavigator{out: out, done: make(chan string, 1)}
	client := api.NewClient(cfg.Storefront, log)
	sess := session.New(cfg, client, nav, printNotification(out), log)

	a := &app{cfg: cfg, log: log, session: sess, out: out, nav: nav}

	if code := currency.ParseCode(cfg.Storefront.DisplayCurrency); code != currency.Base {
		var src currency.RateSource = currency.FixedRate(cfg.Storefront.ExchangeRate)
		if cfg.Storefront.RatesURL != "" {
			src = currency.NewRemoteRates(cfg.Storefront.RatesURL, cfg.Storefront.RatesTTL, cfg.Storefront.RequestTimeout, log)
		}
		if err := sess.ResolveCurrency(ctx, src); err != nil {
			fmt.Fprintf(out, "exchange rate unavailable, prices shown in %s\n", currency.Base)
		}
	}

	token, err := session.LoadToken(cfg.Storefront.SessionFile)
	if err != nil {
		return nil, err
	}
	if token != "" {
		if err := sess.Resume(ctx, token); err != nil {
			log.WithError(err).Warn("saved session rejected")
		}
	}
	return a, nil
}

func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not logged in, run `storefront login` first")
	}
	return nil
}

func (a *app) money(amount decimal.Decimal) string {
	return a.session.Converter().Format(amount)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var a *app

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Agroreach storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = flags.bootstrap(cmd.Context(), cmd.OutOrStdout())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			defer a.session.Close()
			return a.session.SaveToken(a.cfg.Storefront.SessionFile)
		},
	}

	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "backend base URL (overrides STOREFRONT_API_URL)")
	root.PersistentFlags().StringVar(&flags.currency, "currency", "", "display currency, USD or INR")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newLogoutCmd(get),
		newRegisterCmd(get),
		newProductsCmd(get),
		newCartCmd(get),
		newBillingCmd(get),
		newCheckoutCmd(get),
		newOrdersCmd(get),
	)
	return root
}

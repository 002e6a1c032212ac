// Package main is a terminal client for the cart service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/nikolayk812/cartsync/internal/cartstore"
	"github.com/nikolayk812/cartsync/internal/client"
	"github.com/nikolayk812/cartsync/internal/config"
	"github.com/nikolayk812/cartsync/internal/logger"
	"github.com/nikolayk812/cartsync/internal/shutdown"
	"github.com/nikolayk812/cartsync/internal/telemetry"
	"github.com/nikolayk812/cartsync/internal/view"
)

const serviceName = "cartctl"

var errUsage = errors.New("usage")

const usage = `usage: cartctl [flags] <command> [args]

commands:
  products                   list the product catalog
  cart                       show the cart
  add <productId> [qty]      add qty (default 1) of a product
  set <productId> <qty>      set the quantity of a cart line
  inc <productId>            increase a cart line by one
  dec <productId>            decrease a cart line by one
  remove <productId>         remove a cart line

flags:
`

func main() {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	owner := fs.String("owner", "", "cart owner id (overrides OWNER_ID)")
	baseURL := fs.String("api", "", "cart service base URL (overrides API_BASE_URL)")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *owner != "" {
		cfg.OwnerID = *owner
	}
	if *baseURL != "" {
		cfg.APIBaseURL = *baseURL
	}

	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel, Output: os.Stderr})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	err = run(ctx, cfg, log, fs.Args(), os.Stdout)
	switch {
	case errors.Is(err, errUsage):
		fs.Usage()
		os.Exit(2)
	case err != nil:
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Service:  serviceName,
		Exporter: cfg.OTelExporter,
		Endpoint: cfg.OTelEndpoint,
		Output:   os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("telemetry.Setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	c, err := client.New(client.Options{
		BaseURL:  cfg.APIBaseURL,
		OwnerID:  cfg.OwnerID,
		Timeout:  cfg.HTTPTimeout,
		Currency: cfg.CurrencyUnit(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("client.New: %w", err)
	}

	store := cartstore.New(c, c, cartstore.Options{Currency: cfg.CurrencyUnit(), Logger: log})
	defer store.Close()

	v := view.New(store, c, view.Options{
		Bounds:   cfg.QuantityBounds(),
		AlertTTL: cfg.AlertTTL,
		Logger:   log,
	})
	defer v.Close()

	cmd, rest := args[0], args[1:]
	if cmd == "products" {
		return v.RenderProducts(ctx, out)
	}

	// every cart command starts from the server's cart
	if err := v.Refresh(ctx); err != nil {
		_ = v.RenderCart(out)
		return err
	}

	switch cmd {
	case "cart":
	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		qty := 1
		if len(rest) == 2 {
			if qty, err = strconv.Atoi(rest[1]); err != nil {
				return errUsage
			}
		}
		err = v.Add(ctx, rest[0], qty)
	case "set":
		if len(rest) != 2 {
			return errUsage
		}
		qty, convErr := strconv.Atoi(rest[1])
		if convErr != nil {
			return errUsage
		}
		err = v.Set(ctx, rest[0], qty)
	case "inc", "dec":
		if len(rest) != 1 {
			return errUsage
		}
		if cmd == "inc" {
			err = v.Increase(ctx, rest[0])
		} else {
			err = v.Decrease(ctx, rest[0])
		}
	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		err = v.Remove(ctx, rest[0])
	default:
		return errUsage
	}

	if renderErr := v.RenderCart(out); renderErr != nil {
		return renderErr
	}
	return err
}

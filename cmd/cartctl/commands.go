package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/env"
	"github.com/angelmondragon/storefront/pkg/format"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/storage/filestore"
)

const (
	defaultDir     = ".cartctl"
	defaultShopper = "cli"
)

type options struct {
	dir     string
	shopper string
	verbose bool
}

// session is one opened cart plus the registry that relays external writes.
type session struct {
	registry *cart.Registry
	model    *cart.Model
	close    func()
}

func (o *options) open() (*session, error) {
	if strings.TrimSpace(o.shopper) == "" {
		return nil, errors.New("--shopper must not be empty")
	}
	logg := logger.Nop()
	if o.verbose {
		logg = logger.New(logger.Options{ServiceName: "cartctl", Output: os.Stderr, Format: "console"})
	}
	files, err := filestore.New(o.dir, logg)
	if err != nil {
		return nil, err
	}
	registry := cart.NewRegistry(storage.NewAdapter(files, logg, nil), logg, nil)
	model, release := registry.Open(o.shopper)
	return &session{registry: registry, model: model, close: release}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "cartctl",
		Short:        "Inspect and edit a storefront cart",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", env.Get(config.EnvStorageDir, defaultDir), "storage directory shared with other processes")
	root.PersistentFlags().StringVar(&opts.shopper, "shopper", defaultShopper, "shopper id whose cart is edited")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		newShowCmd(opts),
		newAddCmd(opts),
		newSetCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			printCart(cmd.OutOrStdout(), s.model.Read(cmd.Context()))
			return nil
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var (
		name   string
		price  float64
		qty    float64
		branch string
	)
	cmd := &cobra.Command{
		Use:   "add <sku>",
		Short: "Add units of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			var meta map[string]any
			if branch != "" {
				meta = map[string]any{cart.MetaBranch: branch}
			}
			c, _ := s.model.Add(cmd.Context(), args[0], name, price, qty, meta)
			printCart(cmd.OutOrStdout(), c)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price")
	cmd.Flags().Float64Var(&qty, "qty", 1, "units to add")
	cmd.Flags().StringVar(&branch, "branch", "", "fulfilment branch (keys the row as sku:branch)")
	return cmd
}

func newSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <qty>",
		Short: "Set a row's quantity; 0 or less removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid qty %q: %w", args[1], err)
			}
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			c, _ := s.model.SetQuantity(cmd.Context(), args[0], qty)
			printCart(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a row",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			c, _ := s.model.RemoveItem(cmd.Context(), args[0])
			printCart(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			printCart(cmd.OutOrStdout(), s.model.Clear(cmd.Context()))
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the badge count whenever the cart changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.close()
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			fmt.Fprintf(out, "count=%d\n", cart.Count(s.model.Read(ctx)))
			unsubscribe := s.model.Subscribe(func(u cart.Update) {
				fmt.Fprintf(out, "count=%d source=%s\n", u.Count, u.Source)
			})
			defer unsubscribe()

			err = s.registry.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func printCart(w io.Writer, c cart.Cart) {
	if len(c) == 0 {
		fmt.Fprintln(w, cartdto.EmptyCartMessage)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tQTY\tPRICE\tLINE TOTAL")
	for _, item := range c {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", item.Key, item.Name, item.Qty, format.Money(item.Price), format.Money(item.LineTotal()))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "items: %d  total: %s\n", cart.Count(c), format.Money(cart.Total(c)))
}

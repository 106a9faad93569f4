package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect or clear the shopping cart",
	}
	cmd.AddCommand(newCartListCmd(a), newCartClearCmd(a))
	return cmd
}

func newCartListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cart items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := cmd.Context()
			items := engine.Cart.Load(ctx)
			summary := engine.Cart.Summary(ctx)
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := sonic.ConfigStd.MarshalIndent(map[string]any{
					"items":   items,
					"summary": summary,
				}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			if len(items) == 0 {
				fmt.Fprintln(out, "cart is empty")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tECOSCORE\tURL")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Name, item.Score, item.URL)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if summary.Scored > 0 {
				fmt.Fprintf(out, "%d item(s), mean EcoScore %.2f over %d scored\n", summary.Count, summary.MeanScore, summary.Scored)
			} else {
				fmt.Fprintf(out, "%d item(s)\n", summary.Count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCartClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cart item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Cart.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/scraper"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newScrapeCmd(a *app) *cobra.Command {
	var pageURL string

	cmd := &cobra.Command{
		Use:   "scrape <file|url>",
		Short: "Read the product identity out of a product page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			var (
				page *scraper.ProductPage
				err  error
			)
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				engine, eerr := a.engine()
				if eerr != nil {
					return eerr
				}
				defer engine.Close()
				page, err = engine.Scraper.Fetch(cmd.Context(), target)
			} else {
				data, rerr := os.ReadFile(target)
				if rerr != nil {
					return fmt.Errorf("failed to read %s: %w", target, rerr)
				}
				page, err = scraper.Scrape(data, pageURL)
			}
			if err != nil {
				return err
			}

			data, err := sonic.ConfigStd.MarshalIndent(page, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "page URL for a local file (resolves relative images)")
	return cmd
}

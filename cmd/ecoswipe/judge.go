package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/spf13/cobra"
)

var judgeKeys = map[string]session.EventType{
	"a": session.EventOpenAlternatives,
	"n": session.EventSwipeNext,
	"p": session.EventSwipePrev,
	"c": session.EventAddToCart,
	"x": session.EventClearCart,
	"o": session.EventOpenLink,
}

const judgeHelp = "keys: a=alternatives n=next p=prev c=add to cart x=clear cart o=link q=quit"

func newJudgeCmd(a *app) *cobra.Command {
	var url, title string

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Judge a product page and browse greener alternatives in the terminal",
		Long: "Judge runs the popup session for one page. After the verdict, events are\n" +
			"read from stdin one per line, either as a key or an event name.\n" + judgeHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			m := engine.NewMachine()
			defer m.Close()

			m.OnRender(func(r session.Render) {
				if !r.Phase.Terminal() && r.Status != "" && !r.Error {
					fmt.Fprintf(out, "... %s\n", r.Status)
				}
			})

			ctx := cmd.Context()
			r := m.Open(ctx, session.PageInfo{URL: url, Title: title})
			printRender(out, r)
			if !r.Interactive() {
				return nil
			}

			fmt.Fprintln(out, judgeHelp)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "q" || line == "quit" {
					break
				}

				t, ok := judgeKeys[line]
				if !ok {
					if t, err = session.ParseEventType(line); err != nil {
						fmt.Fprintln(out, err)
						continue
					}
				}
				printRender(out, m.Dispatch(ctx, session.Event{Type: t}))
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "product page URL")
	cmd.Flags().StringVar(&title, "title", "", "product name as shown on the page")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func printRender(w io.Writer, r session.Render) {
	if r.Status != "" {
		fmt.Fprintln(w, r.Status)
	}
	if r.Card != nil {
		fmt.Fprintf(w, "[%d/%d] %s\n", r.Index+1, r.Count, r.Card.Name)
		if r.Card.Price != "" {
			fmt.Fprintf(w, "  price: %s\n", r.Card.Price)
		}
		fmt.Fprintf(w, "  %s\n", r.Card.ScoreText)
		fmt.Fprintf(w, "  %s\n", r.Card.URL)
	} else if r.ScoreText != "" {
		fmt.Fprintln(w, r.ScoreText)
	}
	if r.Impact != "" {
		fmt.Fprintf(w, "impact: %s\n", r.Impact)
	}
	if r.Notice != "" {
		fmt.Fprintln(w, r.Notice)
	}
	if r.OpenURL != "" {
		fmt.Fprintf(w, "open: %s\n", r.OpenURL)
	}
	if r.ShowAction {
		fmt.Fprintln(w, "(a) find greener alternatives")
	}
	if r.CartSize > 0 {
		fmt.Fprintf(w, "cart: %d item(s)\n", r.CartSize)
	}
}

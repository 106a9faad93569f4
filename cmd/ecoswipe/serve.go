package main

import (
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the popup bridge for the browser extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			srv := server.NewWithEngine(engine)
			defer srv.Close()

			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	return cmd
}

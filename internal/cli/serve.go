package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve import, export and validation over HTTP",
		Long: `Serve exposes the configured store over HTTP:

  POST /import     materialize the request body
  GET  /export     snapshot the store as a document
  POST /validate   validate the request body
  GET  /healthz    liveness and version

The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.settings()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			s, closeStore, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			runner := c.newRunner()
			defer runner.Cache.Close()

			srv := server.New(runner, s, server.Options{
				Read:   cfg.ReadOptions(),
				Write:  cfg.WriteOptions(),
				Logger: c.Logger,
			})
			printInfo("Serving %s store on %s", cfg.Store.Backend, addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

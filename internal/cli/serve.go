package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/api"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Routes:
  GET    /healthz
  POST   /v1/layout, /v1/lineage, /v1/related, /v1/slice, /v1/render
  GET    /v1/groups
  POST   /v1/groups, /v1/groups/validate, /v1/groups/resolve
  PATCH  /v1/groups/{id}
  DELETE /v1/groups/{id}
  POST   /v1/groups/{id}/members

The listen address defaults to the [server] section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") && c.cfg.Server.Addr != "" {
				addr = c.cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			reg, err := c.newRegistry(ctx)
			if err != nil {
				return fmt.Errorf("open groups: %w", err)
			}
			defer reg.Close()

			printSuccess("Listening on %s", StyleHighlight.Render(addr))
			return api.New(runner, reg, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

package cmd

import (
	"eyestock/app/mcpserver"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the link_preview and ask tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer di.Shutdown()

		provideHeadless(di)

		return do.MustInvoke[*mcpserver.Server](di).ServeStdio()
	},
}

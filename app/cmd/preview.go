package cmd

import (
	"encoding/json"
	"fmt"

	"eyestock/app/service/preview"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

type previewOutput struct {
	preview.LinkPreviewMeta
	Error string `json:"error,omitempty"`
}

var previewCmd = &cobra.Command{
	Use:   "preview <url>...",
	Short: "Print link previews as JSON lines",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer di.Shutdown()

		resolver := do.MustInvoke[*preview.Resolver](di)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)

		var failed int
		for _, result := range resolver.ResolveAll(cmd.Context(), args) {
			out := previewOutput{LinkPreviewMeta: result.Meta}
			out.URL = result.URL

			if result.Err != nil {
				failed++
				out.Error = result.Err.Error()
			}

			if err = enc.Encode(out); err != nil {
				return err
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d previews failed", failed, len(args))
		}

		return nil
	},
}

package cmd

import (
	"log/slog"

	"eyestock/app/config"
	"eyestock/app/server"
	"eyestock/app/service/capture"
	"eyestock/app/service/engine"
	"eyestock/app/service/rotation"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for questions and answer them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		di, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer di.Shutdown()
		defer slog.Info("Waiting for services to finish...")

		provideScreen(di)

		cfg := do.MustInvoke[*config.Config](di)
		captureCtl := do.MustInvoke[*capture.Controller](di)
		defer captureCtl.Close()
		defer do.MustInvoke[*rotation.Controller](di).Stop()

		slog.Info("Service started")

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			do.MustInvoke[*engine.Service](di).Run(ctx)
			return nil
		})

		if cfg.Server.Listen != "" {
			g.Go(func() error {
				return do.MustInvoke[*server.Server](di).Run(ctx)
			})
		}

		return g.Wait()
	},
}

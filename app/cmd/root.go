package cmd

import (
	"context"
	"fmt"

	"eyestock/app/config"
	"eyestock/app/util/mylog"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:           "eyestock",
		Short:         "Voice stock assistant",
		Long:          `Listens for spoken questions about stocks, answers them out loud and rotates previews of related news.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(preferencesCmd)
	rootCmd.AddCommand(mcpCmd)
}

// Execute runs the command line until ctx is cancelled or the command returns.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// bootstrap loads the config, sets up logging and returns an injector with every service registered.
func bootstrap(ctx context.Context) (*do.Injector, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	if err = mylog.Init(cfg, verbose); err != nil {
		return nil, fmt.Errorf("logging init failed: %w", err)
	}

	di := do.New()
	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)

	provide(di)

	return di, nil
}

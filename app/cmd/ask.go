package cmd

import (
	"errors"
	"fmt"
	"strings"

	"eyestock/app/service/correlation"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the answer or the news links",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer di.Shutdown()

		provideHeadless(di)

		turn, ok := do.MustInvoke[*correlation.Controller](di).OnUtterance(cmd.Context(), strings.Join(args, " "))
		if !ok {
			return errors.New("question is empty")
		}

		out := cmd.OutOrStdout()
		if turn.Mode == correlation.ModeNews {
			for _, u := range turn.URLs {
				fmt.Fprintln(out, u)
			}
			return nil
		}

		fmt.Fprintln(out, turn.Answer)

		return nil
	},
}

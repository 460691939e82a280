package cmd

import (
	"fmt"

	"eyestock/app/service/auth"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with this device's key, registering it on first use",
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer di.Shutdown()

		result, err := do.MustInvoke[*auth.Service](di).Login(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "로그인 성공")
		if result.FirstLogin {
			fmt.Fprintln(out, "처음 만나서 반가워요! 'eyestock preferences'로 투자 방식과 관심 기업을 알려주세요.")
		}

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer di.Shutdown()

		return do.MustInvoke[*auth.Service](di).Logout()
	},
}

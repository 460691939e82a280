package cmd

import (
	"errors"
	"fmt"
	"strings"

	"eyestock/app/client/backend"

	"github.com/go-playground/validator/v10"
	"github.com/ncruces/zenity"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

const (
	stylePrompt      = "투자 방식을 말씀해 주세요. 예를 들면, 공격형, 적극투자형, 안정형 등이 있어요."
	companiesPrompt  = "관심 있는 기업을 말씀해 주세요. 예를 들면, 삼성전자, 네이버, 테슬라 등입니다."
	preferencesTitle = "취향 설정"
)

var (
	investmentStyle   string
	favoriteCompanies string

	preferencesCmd = &cobra.Command{
		Use:   "preferences",
		Short: "Save the investment style and favourite companies",
		Long:  `Saves the investment style and favourite companies. Missing values are asked for in a dialog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := backend.Preferences{
				InvestmentStyle:   strings.TrimSpace(investmentStyle),
				FavoriteCompanies: strings.TrimSpace(favoriteCompanies),
			}

			var err error
			if prefs.InvestmentStyle == "" {
				if prefs.InvestmentStyle, err = promptEntry(stylePrompt); err != nil {
					return err
				}
			}
			if prefs.FavoriteCompanies == "" {
				if prefs.FavoriteCompanies, err = promptEntry(companiesPrompt); err != nil {
					return err
				}
			}

			if err = validator.New().Struct(prefs); err != nil {
				return errors.New("투자 방식과 관심 기업을 모두 입력해주세요")
			}

			di, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer di.Shutdown()

			if err = do.MustInvoke[*backend.Client](di).SavePreferences(cmd.Context(), prefs); err != nil {
				return fmt.Errorf("preferences save failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "취향 설정을 저장했어요")

			return nil
		},
	}
)

func init() {
	preferencesCmd.Flags().StringVar(&investmentStyle, "style", "", "investment style, e.g. 안정형")
	preferencesCmd.Flags().StringVar(&favoriteCompanies, "companies", "", "favourite companies, e.g. 삼성전자, 네이버")
}

func promptEntry(prompt string) (string, error) {
	text, err := zenity.Entry(prompt, zenity.Title(preferencesTitle))
	if errors.Is(err, zenity.ErrCanceled) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to show dialog: %w", err)
	}

	return strings.TrimSpace(text), nil
}

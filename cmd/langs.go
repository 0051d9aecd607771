package cmd

import (
	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var langsCmd = &cobra.Command{
	Use:   "langs",
	Short: "List supported language codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunLangs(cmd.OutOrStdout())
	},
}

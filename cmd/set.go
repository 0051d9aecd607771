package cmd

import (
	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change configuration",
}

var setServerCmd = &cobra.Command{
	Use:   "server <base_url>",
	Short: "Set the translation service address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunSetServer(cfgPath, args[0])
	},
}

func init() {
	setCmd.AddCommand(setServerCmd)
}

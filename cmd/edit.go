package cmd

import (
	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var editTargetLang string

var editCmd = &cobra.Command{
	Use:   "edit <job_id>",
	Short: "Edit the translations of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunEdit(cmd.Context(), app.EditOptions{
			Options:        commonOptions(),
			JobID:          args[0],
			TargetLanguage: editTargetLang,
		})
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTargetLang, "to", "t", "", "target language, used to name the download")
}

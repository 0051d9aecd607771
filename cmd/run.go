package cmd

import (
	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var (
	sourceLang string
	targetLang string
	openEditor bool
)

var runCmd = &cobra.Command{
	Use:   "run <file.zip|file.json|game_dir>",
	Short: "Upload, translate and download a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunTranslate(cmd.Context(), app.RunOptions{
			Options:        commonOptions(),
			Input:          args[0],
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			Edit:           openEditor,
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&sourceLang, "from", "s", "", "source language code (default: run.source_language)")
	runCmd.Flags().StringVarP(&targetLang, "to", "t", "", "target language code (default: run.target_language)")
	runCmd.Flags().BoolVarP(&openEditor, "edit", "e", false, "review and edit translations before downloading")
}

package cmd

import (
	"github.com/spf13/cobra"
	"rpgm-translator/internal/app"
)

var (
	watchStatus    bool
	downloadResult bool
)

var statusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Show the progress and log of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunStatus(cmd.Context(), app.StatusOptions{
			Options:  commonOptions(),
			JobID:    args[0],
			Watch:    watchStatus,
			Download: downloadResult,
		})
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "keep polling until the job finishes")
	statusCmd.Flags().BoolVarP(&downloadResult, "download", "d", false, "download the result if the job is completed")
}

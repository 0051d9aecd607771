package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X rpgm-translator/cmd.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func versionText() string {
	return fmt.Sprintf("%s (commit %s, built %s)", strings.TrimSpace(Version), strings.TrimSpace(Commit), strings.TrimSpace(BuildTime))
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "rpgm-translator version %s\n", versionText())
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/genmedia/studioctl/internal/constants"
	"github.com/genmedia/studioctl/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(cmd *cobra.Command, args []string) {
		output.Header(constants.ProjectName)
		output.KeyValue("Version", *constants.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

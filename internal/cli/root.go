package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boxhaul",
	Short: "Dependency-ordered inventory migration",
	Long: `Boxhaul migrates an exported inventory snapshot into a live NetBox
instance, creating objects tier by tier so every foreign key is
satisfied before it is needed.

Configured hardware vendors and their dependent objects are filtered
out, and runs are safe to repeat: objects that already exist in the
target are skipped, never duplicated.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

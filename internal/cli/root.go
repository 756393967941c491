package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the prayerload command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "prayerload",
		Short:   "Load test the prayer wall's prayer-data endpoint",
		Version: version,
		Long: `prayerload spawns simulated prayer wall visitors. Each visitor fetches
GET /getPrayerData?hall=hall-h3-new from the target host and then thinks
for one to five seconds before fetching again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newStubCmd())
	return root
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// Execute runs the root command and reports any error on stderr.
// This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
}

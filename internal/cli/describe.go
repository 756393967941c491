package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/prayerload/internal/performance/config"
	"github.com/wesleyorama2/prayerload/internal/performance/executor"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show what a simulated user does",
		Long: `Print a profile's think time and tasks. With --host the full target URL of
every task is shown as it would be requested.

  prayerload describe --host http://localhost:8080
  prayerload describe --schema > run.schema.json`,
		Args: cobra.NoArgs,
		RunE: describeProfile,
	}

	cmd.Flags().StringP("profile", "p", scenario.DefaultProfile, "Simulated user profile")
	cmd.Flags().StringP("host", "H", "", "Resolve task URLs against this host")
	cmd.Flags().Bool("json", false, "Print the profile as JSON")
	cmd.Flags().Bool("schema", false, "Print the JSON Schema of the run configuration file")

	return cmd
}

func describeProfile(cmd *cobra.Command, args []string) error {
	profileName, _ := cmd.Flags().GetString("profile")
	host, _ := cmd.Flags().GetString("host")
	asJSON, _ := cmd.Flags().GetBool("json")
	schema, _ := cmd.Flags().GetBool("schema")

	out := cmd.OutOrStdout()

	if schema {
		fmt.Fprint(out, config.Schema())
		return nil
	}

	profile, err := scenario.Lookup(profileName)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	title := color.New(color.Bold)
	title.Fprintf(out, "Profile:    %s\n", profile.Name)
	fmt.Fprintf(out, "Wait time:  %s\n", profile.WaitTime)
	fmt.Fprintln(out, "Tasks:")

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, task := range profile.Tasks {
		target := task.Target()
		if host != "" {
			target, err = task.URL(host)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(tw, "  %s\tweight %d\t%s %s\n", task.Name, task.Weight, task.Method, target)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Executors:")
	for _, typ := range executor.GetSupportedExecutors() {
		if d := executor.GetExecutorDescription(typ); d != nil {
			fmt.Fprintf(out, "  %-18s %s\n", d.Type, d.Description)
		}
	}
	return nil
}

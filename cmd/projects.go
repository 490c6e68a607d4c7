package cmd

import (
	"fmt"
	"text/tabwriter"

	"supabase-clone/internal/management"
	"supabase-clone/internal/source"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var projectsCmd = &cobra.Command{
	Use:   "projects [ref]",
	Short: "List projects visible to a management access token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := management.NewClient(viper.GetString("management.url"), viper.GetString("management.token"), httpTimeout())
		ctx := cmd.Context()

		valid, err := client.ValidateToken(ctx)
		if err != nil {
			return err
		}
		if !valid {
			return fmt.Errorf("management access token is missing or was rejected (set management.token or SUPACLONE_MANAGEMENT_TOKEN)")
		}

		var projects []management.Project
		if len(args) == 1 {
			p, err := client.GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			projects = append(projects, *p)
		} else {
			if projects, err = client.ListProjects(ctx); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REF\tNAME\tREGION\tSTATUS\tURL")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ProjectRef(), p.Name, p.Region, p.Status, source.ProjectURL(p.ProjectRef()))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "\n%d project(s)\n", len(projects))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(projectsCmd)

	projectsCmd.Flags().String("token", "", "management API access token")
	viper.BindPFlag("management.token", projectsCmd.Flags().Lookup("token"))
}

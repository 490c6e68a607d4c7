package cmd

import (
	"fmt"

	"supabase-clone/internal/source"

	"github.com/spf13/cobra"
)

var policyHelperCmd = &cobra.Command{
	Use:   "policy-helper",
	Short: "Print the SQL that exposes RLS policies to the clone command",
	Long: `Without a database password, clone reads RLS policies through a
get_policies() function in the source project. Run the printed SQL once in
the source project's SQL Editor to create it.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), source.PolicyHelperSQL)
	},
}

func init() {
	RootCmd.AddCommand(policyHelperCmd)
}

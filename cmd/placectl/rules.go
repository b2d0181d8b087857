package main

import (
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active rule table",
	Long: `Prints the keyword rules in the rules file format, so the output can be
edited and passed back with --rules.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}
	return printJSON(cmd, rules)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/placekit/internal/tagging"
)

var rulesPath string

var rootCmd = &cobra.Command{
	Use:          "placectl",
	Short:        "Place tagging, opening hours and schema tools",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", os.Getenv("TAG_RULES_PATH"),
		"JSON rules file replacing the built-in rule table")
}

// loadRules returns the table selected by --rules.
func loadRules() (*tagging.RuleTable, error) {
	return tagging.LoadRuleTableFile(rulesPath)
}

// openInput opens the named file, or stdin for "" and "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

// decodeInput decodes JSON from the command's input into v.
func decodeInput(cmd *cobra.Command, args []string, v any) error {
	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := json.NewDecoder(in).Decode(v); err != nil {
		return fmt.Errorf("decoding input: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	// Println would fall back to stderr; results belong on stdout.
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/placekit/internal/plugins/places"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [payload.json]",
	Short: "Classify a provider payload into AI tags",
	Long: `Reads one provider place record (additionalInfo, reviews, category)
from a file or stdin and prints the tags the classifier assigns, with their
metadata.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

type classifyOutput struct {
	AITags     tagging.TagSet `json:"aiTags"`
	AITagsMeta tagging.Meta   `json:"aiTagsMeta"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	var payload places.ProviderPayload
	if err := decodeInput(cmd, args, &payload); err != nil {
		return err
	}

	classifier := tagging.NewClassifier(rules)
	src := payload.TagSource()
	tags := classifier.Classify(src)

	return printJSON(cmd, classifyOutput{
		AITags:     tags,
		AITagsMeta: classifier.Describe(src, tags, time.Now()),
	})
}

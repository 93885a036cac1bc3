package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nfrund/batepapo/internal/pubsub"
	"github.com/nfrund/batepapo/internal/topicmgr"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	topicsOutputFormat string
	topicsPrefix       string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the activity event topics",
	Long: `List the topics published on the in-process event bus.

Examples:
  batepapo topics
  batepapo topics --prefix chat.message.
  batepapo topics --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics := topicmgr.Default().ListByPrefix(topicsPrefix)
		out := cmd.OutOrStdout()

		switch topicsOutputFormat {
		case "json":
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(struct {
				Topics []topicmgr.Topic `json:"topics"`
				Count  int              `json:"count"`
			}{Topics: topics, Count: len(topics)})
		case "table":
			renderTopics(out, topics)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", topicsOutputFormat)
		}
	},
}

func renderTopics(w io.Writer, topics []topicmgr.Topic) {
	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics found")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Payload", "Description"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, t := range topics {
		table.Append([]string{t.Name, t.Payload, t.Description})
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(topicsCmd)

	// Declares the activity topics.
	_ = pubsub.ParticipantJoined

	topicsCmd.Flags().StringVarP(&topicsOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsCmd.Flags().StringVarP(&topicsPrefix, "prefix", "p", "", "Only topics whose name starts with prefix")
}

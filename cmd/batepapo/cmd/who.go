package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nfrund/batepapo/internal/domain"
	"github.com/nfrund/batepapo/internal/handlers"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	whoServer       string
	whoOutputFormat string
	whoTimeout      time.Duration
)

var whoCmd = &cobra.Command{
	Use:   "who",
	Short: "List the participants of a running server",
	Long: `Ask a running batepapo server who is in the room.

Examples:
  batepapo who
  batepapo who --server http://chat.example.com:5000
  batepapo who --format json

Output formats:
  table - name, last heartbeat and idle time (default)
  json  - the raw participant list`,
	RunE: runWho,
}

func runWho(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), whoTimeout)
	defer cancel()

	participants, err := fetchParticipants(ctx, http.DefaultClient, whoServer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch whoOutputFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(participants)
	case "table":
		renderParticipants(out, participants, time.Now())
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, use table or json", whoOutputFormat)
	}
}

func fetchParticipants(ctx context.Context, client *http.Client, server string) ([]handlers.ParticipantResponse, error) {
	url := strings.TrimRight(server, "/") + "/participants"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}

	var participants []handlers.ParticipantResponse
	if err := json.NewDecoder(resp.Body).Decode(&participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return participants, nil
}

func renderParticipants(w io.Writer, participants []handlers.ParticipantResponse, now time.Time) {
	if len(participants) == 0 {
		fmt.Fprintln(w, "Ninguém na sala.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Last Status", "Idle"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")

	for _, p := range participants {
		seen := time.UnixMilli(p.LastStatus)
		table.Append([]string{
			p.Name,
			domain.FormatTime(seen),
			now.Sub(seen).Truncate(time.Second).String(),
		})
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(whoCmd)

	whoCmd.Flags().StringVarP(&whoServer, "server", "s", "http://localhost:5000", "Base URL of the server")
	whoCmd.Flags().StringVarP(&whoOutputFormat, "format", "f", "table", "Output format (table, json)")
	whoCmd.Flags().DurationVar(&whoTimeout, "timeout", 5*time.Second, "Request timeout")
}

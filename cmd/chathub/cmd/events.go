package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nfrund/chathub/internal/events"
)

var eventsOutputFormat string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the events published on the internal bus",
	Long: `List every event the hub publishes on its internal message bus,
with the payload each one carries.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := events.Catalog()
		switch eventsOutputFormat {
		case "json":
			return displayEventsJSON(cmd.OutOrStdout(), catalog)
		case "table":
			displayEventsTable(cmd.OutOrStdout(), catalog)
			return nil
		default:
			return fmt.Errorf("unknown format %q, expected table or json", eventsOutputFormat)
		}
	},
}

func displayEventsTable(out io.Writer, catalog []events.Descriptor) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tPAYLOAD\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-------\t-----------")
	for _, d := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Payload, d.Description)
	}
}

func displayEventsJSON(out io.Writer, catalog []events.Descriptor) error {
	output := struct {
		Events []events.Descriptor `json:"events"`
		Count  int                 `json:"count"`
	}{
		Events: catalog,
		Count:  len(catalog),
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutputFormat, "format", "f", "table", "output format (table|json)")
	rootCmd.AddCommand(eventsCmd)
}

package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hydromet/meteosat/pkg/product"
	"github.com/spf13/cobra"
)

// NewSourcesCmd creates the sources command.
func NewSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List supported sources and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tabWriter := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tabWriter, "SOURCE\tTIMESTEPS\tDATASETS\tVERSIONS\tRUNS\tAUTH")
			for _, name := range sourceNames() {
				d := sources[name].descriptor
				_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\t%s\t%s\n",
					name, joinTimesteps(d.Timesteps), orDash(d.Datasets), orDash(d.Versions), orDash(d.Runs), authLabel(d))
			}
			return tabWriter.Flush()
		},
	}
}

func joinTimesteps(ts []product.Timestep) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func orDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}

func authLabel(d product.Descriptor) string {
	if d.RequiresAuth {
		return "earthdata"
	}
	return "-"
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewLocateCmd creates the locate command.
func NewLocateCmd() *cobra.Command {
	var (
		flags requestFlags
		date  string
	)

	cmd := &cobra.Command{
		Use:   "locate SOURCE",
		Short: "Print where a file would be downloaded from",
		Long: `Validate the request and print the remote location of the file without
downloading it. PERSIANN file names are issued by the portal per query, so
locating a PERSIANN file asks the portal to prepare it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			req := flags.request(args[0])
			req.Date = d

			src, err := newSource(cfg, args[0], nil)
			if err != nil {
				return err
			}
			loc, err := src.Locate(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to locate %s: %w", src.Name(), err)
			}

			tabWriter := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintf(tabWriter, "PRODUCT\t%s\n", src.Name())
			_, _ = fmt.Fprintf(tabWriter, "STRATEGY\t%s\n", loc.Strategy)
			_, _ = fmt.Fprintf(tabWriter, "LOCATION\t%s\n", loc.String())
			if loc.Variable != "" {
				_, _ = fmt.Fprintf(tabWriter, "VARIABLE\t%s\n", loc.Variable)
			}
			_, _ = fmt.Fprintf(tabWriter, "FILE\t%s\n", defaultFileName(args[0], req))
			return tabWriter.Flush()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date of the slice")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

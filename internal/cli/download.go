package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
	"github.com/spf13/cobra"
)

// requestFlags are the product parameters shared by download, range and locate.
type requestFlags struct {
	timestep string
	dataset  string
	version  string
	run      string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.timestep, "timestep", "t", string(product.Daily), "Temporal resolution (30min, hourly, 3hourly, 6hourly, daily, monthly, annual)")
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "Dataset (MSWEP: Past, Past_nogauge, NRT; PERSIANN: PERSIANN, CCS, CDR, PDIR)")
	cmd.Flags().StringVar(&f.version, "version", "", "Product version (IMERG: v06, v07)")
	cmd.Flags().StringVar(&f.run, "run", "", "Processing run (IMERG: early, late, final)")
}

func (f *requestFlags) request(source string) product.Request {
	req := product.Request{
		Timestep: product.Timestep(strings.ToLower(f.timestep)),
		Dataset:  f.dataset,
		Version:  strings.ToLower(f.version),
		Run:      strings.ToLower(f.run),
	}
	// IMERG always has a version and run; default to the latest final product.
	if strings.EqualFold(source, "imerg") {
		if req.Version == "" {
			req.Version = "v07"
		}
		if req.Run == "" {
			req.Run = "final"
		}
	}
	return req
}

func printEvent(e orchestrator.Event) {
	if e.Msg != "" {
		logger.Info(e.Phase, logger.Fields{"product": e.Product, "detail": e.Msg})
		return
	}
	logger.Info(e.Phase, logger.Fields{"product": e.Product})
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var (
		flags   requestFlags
		date    string
		output  string
		outDir  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "download SOURCE",
		Short: "Download one file",
		Long: `Download the file of SOURCE (chirps, cmorph, mswep, imerg, persiann)
covering --date at the requested timestep. The file is written atomically:
on failure no partial output is left behind.`,
		Example: `  meteosat download chirps --date 2020-01-01 --timestep daily
  meteosat download imerg --date 2020-01-01T12:30 --timestep 30min --run late
  meteosat download mswep --date 2020-01 --timestep monthly --dataset Past -o mswep.nc`,
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
			req.OutPath = output
			if req.OutPath == "" {
				req.OutPath = filepath.Join(outDir, defaultFileName(args[0], req))
			}

			var onEvent func(orchestrator.Event)
			if verbose {
				onEvent = printEvent
			}
			src, err := newSource(cfg, args[0], onEvent)
			if err != nil {
				return err
			}

			res, err := src.Fetch(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to download %s: %w", src.Name(), err)
			}
			logger.Success("Downloaded "+src.Name(), logger.Fields{
				"path": res.Path,
				"size": humanize.Bytes(uint64(res.Bytes)),
			})
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date of the slice (YYYY-MM-DD, YYYY-MM-DDTHH:MM, YYYY-MM or YYYY)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: generated name in --dir)")
	cmd.Flags().StringVar(&outDir, "dir", ".", "Directory for generated output names")
	cmd.Flags().BoolVar(&verbose, "events", false, "Print progress events")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

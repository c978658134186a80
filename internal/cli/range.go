package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/product"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxRangeSlices bounds a single range command.
const maxRangeSlices = 100000

// NewRangeCmd creates the range command.
func NewRangeCmd() *cobra.Command {
	var (
		flags       requestFlags
		from, to    string
		outDir      string
		concurrency int
		keepGoing   bool
	)

	cmd := &cobra.Command{
		Use:   "range SOURCE",
		Short: "Download every file between two dates",
		Long: `Download every slice of SOURCE from --from to --to inclusive into --dir,
using generated file names. Slices that are not published (outside the
product's availability window) stop the run unless --keep-going is set.`,
		Example: `  meteosat range chirps --from 2020-01-01 --to 2020-01-31 --dir data/chirps
  meteosat range persiann --dataset CDR --timestep monthly --from 2010-01 --to 2010-12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = cfg.Settings.MaxConcurrent
			}

			template := flags.request(args[0])
			requests, err := rangeRequests(template, start, end)
			if err != nil {
				return err
			}
			for i := range requests {
				requests[i].OutPath = filepath.Join(outDir, defaultFileName(args[0], requests[i]))
			}

			src, err := newSource(cfg, args[0], nil)
			if err != nil {
				return err
			}
			return runRange(cmd.Context(), src, requests, concurrency, keepGoing)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "First date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "Last date (inclusive)")
	cmd.Flags().StringVar(&outDir, "dir", ".", "Output directory")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of parallel downloads (0=config max_concurrent)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue past failed slices and report them at the end")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// rangeRequests expands template into one request per slice in [start, end].
// Monthly and annual ranges start at the first day of the period.
func rangeRequests(template product.Request, start, end time.Time) ([]product.Request, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("--to %s is before --from %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	switch template.Timestep {
	case product.Monthly:
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	case product.Annual:
		start = time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	var out []product.Request
	for t := start; !t.After(end); {
		req := template
		req.Date = t
		out = append(out, req)
		if len(out) > maxRangeSlices {
			return nil, fmt.Errorf("range has more than %d slices", maxRangeSlices)
		}
		next, err := template.Timestep.Next(t)
		if err != nil {
			return nil, err
		}
		t = next
	}
	return out, nil
}

func runRange(ctx context.Context, src Source, requests []product.Request, concurrency int, keepGoing bool) error {
	var (
		done   atomic.Int64
		failed atomic.Int64
		bytes  atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := src.Fetch(ctx, req)
			if err != nil {
				failed.Add(1)
				logger.Error("slice failed", logger.Fields{
					"date":  req.Date.UTC().Format(time.RFC3339),
					"error": err.Error(),
				})
				if keepGoing && !errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("%s %s: %w", src.Name(), req.Date.UTC().Format(time.RFC3339), err)
			}
			done.Add(1)
			bytes.Add(res.Bytes)
			logger.Debug("slice downloaded", logger.Fields{"path": res.Path})
			return nil
		})
	}
	err := g.Wait()

	fields := logger.Fields{
		"downloaded": done.Load(),
		"failed":     failed.Load(),
		"total":      len(requests),
		"size":       humanize.Bytes(uint64(bytes.Load())),
	}
	if err != nil {
		logger.Error("Range download stopped", fields)
		return err
	}
	if n := failed.Load(); n > 0 {
		logger.Warn("Range download finished with failures", fields)
		return fmt.Errorf("%d of %d slices failed", n, len(requests))
	}
	logger.Success("Range download finished", fields)
	return nil
}

// Package mswep downloads Multi-Source Weighted-Ensemble Precipitation
// (MSWEP V2.8) netCDF files.
//
// The historical datasets are shared through a cloud drive and are copied
// with rclone from a preconfigured remote. The near-real-time dataset is
// fetched over HTTP.
package mswep

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
)

// Datasets.
const (
	Past        = "Past"
	PastNoGauge = "Past_nogauge"
	NRT         = "NRT"
)

const (
	// DefaultRemote is the rclone remote that has the MSWEP share mounted.
	DefaultRemote = "GoogleDrive"
	// DefaultNRTBaseURL is the HTTP root of the near-real-time dataset.
	DefaultNRTBaseURL = "https://data.gloh2o.org/MSWEP_V280/NRT"

	rootFolder = "MSWEP_V280"
)

// DefaultSyncFlags are passed to rclone for every copy. MSWEP is shared with
// the user's drive rather than owned by it.
var DefaultSyncFlags = []string{"--drive-shared-with-me"}

const day = 24 * time.Hour

// Descriptor lists what MSWEP serves.
var Descriptor = product.Descriptor{
	Name:      "MSWEP",
	Timesteps: []product.Timestep{product.ThreeHour, product.Daily, product.Monthly},
	Datasets:  []string{Past, PastNoGauge, NRT},
	Windows: []product.Window{
		{Dataset: NRT, Start: product.Date(2020, time.January, 1), Latency: 3 * time.Hour},
		{Start: product.Date(1979, time.January, 1), Latency: 90 * day},
	},
	Rules: []product.Rule{
		product.Aligned("MSWEP", product.ThreeHour, 3*time.Hour),
	},
}

var folders = map[product.Timestep]string{
	product.ThreeHour: "3hourly",
	product.Daily:     "Daily",
	product.Monthly:   "Monthly",
}

// FileName returns the MSWEP file name for req: year plus day of year for
// daily and 3-hourly data, year plus month for monthly data.
func FileName(req product.Request) (string, error) {
	t := req.Date.UTC()
	switch req.Timestep {
	case product.ThreeHour:
		return fmt.Sprintf("%s%03d.%s.nc", t.Format("2006"), t.YearDay(), t.Format("15")), nil
	case product.Daily:
		return fmt.Sprintf("%s%03d.nc", t.Format("2006"), t.YearDay()), nil
	case product.Monthly:
		return t.Format("200601") + ".nc", nil
	default:
		return "", product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep), "3hourly", "daily", "monthly")
	}
}

// Locate returns the sync remote path for the historical datasets and an
// HTTP URL for NRT.
func Locate(remote, nrtBaseURL string, req product.Request) (product.Locator, error) {
	name, err := FileName(req)
	if err != nil {
		return product.Locator{}, err
	}
	folder := folders[req.Timestep]

	switch req.Dataset {
	case Past, PastNoGauge:
		return product.Locator{
			Strategy: product.StrategySync,
			Remote:   fmt.Sprintf("%s:/%s/%s/%s/%s", remote, rootFolder, req.Dataset, folder, name),
			Variable: "precipitation",
		}, nil
	case NRT:
		return product.Locator{
			Strategy: product.StrategyHTTP,
			URL:      fmt.Sprintf("%s/%s/%s", strings.TrimRight(nrtBaseURL, "/"), folder, name),
			Variable: "precipitation",
		}, nil
	default:
		return product.Locator{}, product.Unsupported(Descriptor.Name, "dataset", req.Dataset, Descriptor.Datasets...)
	}
}

// WithRemote sets the rclone remote name, DefaultRemote if unset.
func WithRemote(name string) orchestrator.Option { return orchestrator.WithRemote(name) }

// WithSyncer replaces the rclone syncer.
func WithSyncer(s download.Syncer) orchestrator.Option { return orchestrator.WithSyncer(s) }

// WithNRTBaseURL overrides DefaultNRTBaseURL.
func WithNRTBaseURL(u string) orchestrator.Option { return orchestrator.WithBaseURL(u) }

// Client downloads MSWEP files.
type Client struct {
	dispatcher *orchestrator.Dispatcher
	remote     string
	nrtBaseURL string
}

// New creates an MSWEP client. The sync tool is not looked up until the
// first historical download; a missing binary surfaces as a sync tool error.
func New(opts ...orchestrator.Option) (*Client, error) {
	s := orchestrator.NewSettings(opts...)
	if s.Fetcher == nil && s.Download.Syncer == nil {
		s.Download.Syncer = download.NewRcloneSyncer(download.DefaultRcloneCommand, DefaultSyncFlags...)
	}
	d, err := orchestrator.NewDispatcher(s)
	if err != nil {
		return nil, err
	}
	c := &Client{dispatcher: d, remote: s.Remote, nrtBaseURL: s.BaseURL}
	if c.remote == "" {
		c.remote = DefaultRemote
	}
	if c.nrtBaseURL == "" {
		c.nrtBaseURL = DefaultNRTBaseURL
	}
	return c, nil
}

// Name returns the product name.
func (c *Client) Name() string { return Descriptor.Name }

// Download writes the MSWEP file for date, timestep and dataset to outPath.
func (c *Client) Download(ctx context.Context, date time.Time, timestep product.Timestep, dataset, outPath string) error {
	_, err := c.Fetch(ctx, product.Request{Date: date, Timestep: timestep, Dataset: dataset, OutPath: outPath})
	return err
}

// Fetch runs a full request and reports what was written.
func (c *Client) Fetch(ctx context.Context, req product.Request) (download.Result, error) {
	return c.dispatcher.Run(ctx, Descriptor, c.locate, req, nil)
}

// Locate validates req and returns its locator without downloading.
func (c *Client) Locate(ctx context.Context, req product.Request) (product.Locator, error) {
	return c.dispatcher.Locate(ctx, Descriptor, c.locate, req)
}

func (c *Client) locate(_ context.Context, req product.Request) (product.Locator, error) {
	return Locate(c.remote, c.nrtBaseURL, req)
}

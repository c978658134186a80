// Package cmorph downloads NOAA CPC MORPHing technique (CMORPH v1.0 CDR)
// precipitation files from NCEI.
package cmorph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultBaseURL is the NCEI access root for the high resolution CMORPH CDR.
const DefaultBaseURL = "https://www.ncei.noaa.gov/data/cmorph-high-resolution-global-precipitation-estimates/access"

// Descriptor lists what CMORPH serves.
var Descriptor = product.Descriptor{
	Name:      "CMORPH",
	Timesteps: []product.Timestep{product.HalfHourly, product.Hourly, product.Daily},
	Windows: []product.Window{
		{Start: product.Date(1998, time.January, 1), Latency: 90 * 24 * time.Hour},
	},
}

// Locate returns the netCDF file for req under baseURL. Half-hourly data is
// stored two slots per hourly file.
func Locate(baseURL string, req product.Request) (product.Locator, error) {
	t := req.Date.UTC()
	ymd := t.Format("20060102")
	dir := t.Format("2006/01/02")

	var path string
	switch req.Timestep {
	case product.HalfHourly:
		path = fmt.Sprintf("30min/8km/%s/CMORPH_V1.0_ADJ_8km-30min_%s%s.nc", dir, ymd, t.Format("15"))
	case product.Hourly:
		path = fmt.Sprintf("hourly/0.25deg/%s/CMORPH_V1.0_ADJ_0.25deg-HLY_%s%s.nc", dir, ymd, t.Format("15"))
	case product.Daily:
		path = fmt.Sprintf("daily/0.25deg/%s/CMORPH_V1.0_ADJ_0.25deg-DLY_00Z_%s.nc", t.Format("2006/01"), ymd)
	default:
		return product.Locator{}, product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep),
			"30min", "hourly", "daily")
	}

	return product.Locator{
		Strategy: product.StrategyHTTP,
		URL:      strings.TrimRight(baseURL, "/") + "/" + path,
		Variable: "cmorph",
	}, nil
}

// Client downloads CMORPH files.
type Client struct {
	dispatcher *orchestrator.Dispatcher
	baseURL    string
}

// New creates a CMORPH client.
func New(opts ...orchestrator.Option) (*Client, error) {
	s := orchestrator.NewSettings(opts...)
	d, err := orchestrator.NewDispatcher(s)
	if err != nil {
		return nil, err
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{dispatcher: d, baseURL: baseURL}, nil
}

// Name returns the product name.
func (c *Client) Name() string { return Descriptor.Name }

// Download writes the CMORPH file for date and timestep to outPath.
func (c *Client) Download(ctx context.Context, date time.Time, timestep product.Timestep, outPath string) error {
	_, err := c.Fetch(ctx, product.Request{Date: date, Timestep: timestep, OutPath: outPath})
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
	return Locate(c.baseURL, req)
}

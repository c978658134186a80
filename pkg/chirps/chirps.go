// Package chirps downloads Climate Hazards Group InfraRed Precipitation with
// Station data (CHIRPS v2.0) GeoTIFFs from the UCSB data server.
package chirps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultBaseURL is the CHIRPS 2.0 product root.
const DefaultBaseURL = "https://data.chc.ucsb.edu/products/CHIRPS-2.0"

const day = 24 * time.Hour

// Descriptor lists what CHIRPS serves.
var Descriptor = product.Descriptor{
	Name:      "CHIRPS",
	Timesteps: []product.Timestep{product.Daily, product.Monthly, product.Annual},
	Windows: []product.Window{
		{Timestep: product.Annual, Start: product.Date(1981, time.January, 1), Latency: 425 * day},
		{Start: product.Date(1981, time.January, 1), Latency: 60 * day},
	},
}

// Locate returns the gzip-compressed GeoTIFF for req under baseURL.
func Locate(baseURL string, req product.Request) (product.Locator, error) {
	t := req.Date.UTC()
	base := strings.TrimRight(baseURL, "/")

	var path string
	switch req.Timestep {
	case product.Daily:
		path = fmt.Sprintf("global_daily/tifs/p05/%s/chirps-v2.0.%s.tif.gz", t.Format("2006"), t.Format("2006.01.02"))
	case product.Monthly:
		path = fmt.Sprintf("global_monthly/tifs/chirps-v2.0.%s.tif.gz", t.Format("2006.01"))
	case product.Annual:
		path = fmt.Sprintf("global_annual/tifs/chirps-v2.0.%s.tif.gz", t.Format("2006"))
	default:
		return product.Locator{}, product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep),
			"daily", "monthly", "annual")
	}

	return product.Locator{
		Strategy:    product.StrategyHTTP,
		URL:         base + "/" + path,
		Compression: product.CompressionGzip,
	}, nil
}

// Client downloads CHIRPS files.
type Client struct {
	dispatcher *orchestrator.Dispatcher
	baseURL    string
}

// New creates a CHIRPS client.
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

// Download writes the CHIRPS raster for date and timestep to outPath.
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

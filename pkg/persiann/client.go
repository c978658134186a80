package persiann

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/download"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	meteohttp "github.com/hydromet/meteosat/pkg/http"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultEmail is sent to the portal when no contact address is configured.
const DefaultEmail = "meteosat@example.org"

// maxTicketSize bounds the query response body.
const maxTicketSize = 64 << 10

// WithEmail sets the contact address sent to the portal.
func WithEmail(email string) orchestrator.Option { return orchestrator.WithEmail(email) }

// Client downloads PERSIANN files.
type Client struct {
	dispatcher *orchestrator.Dispatcher
	baseURL    string
	email      string
	httpClient *http.Client
}

// New creates a PERSIANN client.
func New(opts ...orchestrator.Option) (*Client, error) {
	s := orchestrator.NewSettings(opts...)
	d, err := orchestrator.NewDispatcher(s)
	if err != nil {
		return nil, err
	}
	c := &Client{dispatcher: d, baseURL: s.BaseURL, email: s.Email, httpClient: s.HTTPClient()}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.email == "" {
		c.email = DefaultEmail
	}
	return c, nil
}

// Name returns the product name.
func (c *Client) Name() string { return Descriptor.Name }

// Download writes the GeoTIFF for date, timestep and dataset to outPath.
func (c *Client) Download(ctx context.Context, date time.Time, timestep product.Timestep, dataset, outPath string) error {
	_, err := c.Fetch(ctx, product.Request{Date: date, Timestep: timestep, Dataset: dataset, OutPath: outPath})
	return err
}

// Fetch runs a full request and reports what was written.
func (c *Client) Fetch(ctx context.Context, req product.Request) (download.Result, error) {
	return c.dispatcher.Run(ctx, Descriptor, c.locate, req, nil)
}

// Locate validates req and asks the portal to prepare it. Unlike the other
// products this contacts the remote: the file name is issued per query.
func (c *Client) Locate(ctx context.Context, req product.Request) (product.Locator, error) {
	return c.dispatcher.Locate(ctx, Descriptor, c.locate, req)
}

func (c *Client) locate(ctx context.Context, req product.Request) (product.Locator, error) {
	ticket, err := c.query(ctx, req)
	if err != nil {
		return product.Locator{}, err
	}
	loc, err := Locate(c.baseURL, req, ticket)
	if err != nil {
		return product.Locator{}, err
	}
	params, err := DownloadParams(req, loc.URL, c.email)
	if err != nil {
		return product.Locator{}, err
	}
	publishURL := strings.TrimRight(c.baseURL, "/") + "/php/emailDownload.php?" + params.Encode()
	if _, err := c.get(ctx, publishURL); err != nil {
		return product.Locator{}, err
	}
	logger.Debug("persiann file published", logger.Fields{"url": loc.URL})
	return loc, nil
}

func (c *Client) query(ctx context.Context, req product.Request) (Ticket, error) {
	queryURL, err := QueryURL(c.baseURL, req)
	if err != nil {
		return Ticket{}, err
	}
	body, err := c.get(ctx, queryURL)
	if err != nil {
		return Ticket{}, err
	}

	var ticket Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return Ticket{}, &pkgerrors.RemoteUnavailableError{URL: queryURL, Err: pkgerrors.Wrap(err, "malformed query response")}
	}
	if ticket.UserIP == "" || ticket.ZipFile == "" {
		return Ticket{}, &pkgerrors.RemoteUnavailableError{URL: queryURL, Err: pkgerrors.Wrap(pkgerrors.ErrRemoteUnavailable, "query response has no file")}
	}
	return ticket, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", meteohttp.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &pkgerrors.RemoteUnavailableError{URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &pkgerrors.RemoteUnavailableError{URL: u, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTicketSize))
	if err != nil {
		return nil, &pkgerrors.RemoteUnavailableError{URL: u, Err: err}
	}
	return body, nil
}

package imerg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/auth"
	"github.com/hydromet/meteosat/pkg/download"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	meteohttp "github.com/hydromet/meteosat/pkg/http"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultLoginURL is the NASA Earthdata Login root.
const DefaultLoginURL = "https://" + meteohttp.EarthdataLoginHost

// ErrInvalidCredentials is returned by Login when Earthdata rejects the
// credentials. It matches errors.ErrMissingCredentials.
var ErrInvalidCredentials = fmt.Errorf("%w: rejected by Earthdata Login", pkgerrors.ErrMissingCredentials)

// WithToken authenticates with an Earthdata user token instead of a
// username and password.
func WithToken(token string) orchestrator.Option {
	return orchestrator.WithAuthenticator(auth.BearerAuth{Token: token})
}

// Client downloads IMERG files.
type Client struct {
	LoginURL string // Earthdata Login root used by Login

	dispatcher *orchestrator.Dispatcher
	baseURL    string
	auth       auth.Authenticator
	httpClient *http.Client
}

// New creates an IMERG client for an Earthdata account. Missing credentials
// are reported by Download and Login, not here.
func New(user, password string, opts ...orchestrator.Option) (*Client, error) {
	s := orchestrator.NewSettings(opts...)
	if !slices.Contains(s.Download.AuthHosts, meteohttp.EarthdataLoginHost) {
		s.Download.AuthHosts = append(slices.Clone(s.Download.AuthHosts), meteohttp.EarthdataLoginHost)
	}
	d, err := orchestrator.NewDispatcher(s)
	if err != nil {
		return nil, err
	}

	var a auth.Authenticator = auth.BasicAuth{Username: user, Password: password}
	if s.Authenticator != nil {
		a = s.Authenticator
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		LoginURL:   DefaultLoginURL,
		dispatcher: d,
		baseURL:    baseURL,
		auth:       a,
		httpClient: s.HTTPClient(),
	}, nil
}

// Name returns the product name.
func (c *Client) Name() string { return Descriptor.Name }

// Download writes the IMERG file for date, version, run and timestep to
// outPath.
func (c *Client) Download(ctx context.Context, date time.Time, version, run string, timestep product.Timestep, outPath string) error {
	_, err := c.Fetch(ctx, product.Request{Date: date, Version: version, Run: run, Timestep: timestep, OutPath: outPath})
	return err
}

// Fetch runs a full request and reports what was written.
func (c *Client) Fetch(ctx context.Context, req product.Request) (download.Result, error) {
	if err := c.checkCredentials(); err != nil {
		return download.Result{}, err
	}
	return c.dispatcher.Run(ctx, Descriptor, c.locate, req, c.auth)
}

// Locate validates req and returns its locator without downloading.
func (c *Client) Locate(ctx context.Context, req product.Request) (product.Locator, error) {
	return c.dispatcher.Locate(ctx, Descriptor, c.locate, req)
}

// Login checks the credentials against Earthdata Login.
func (c *Client) Login(ctx context.Context) error {
	if err := c.checkCredentials(); err != nil {
		return err
	}

	loginURL := strings.TrimRight(c.LoginURL, "/")
	var req *http.Request
	var err error
	if basic, ok := c.auth.(auth.BasicAuth); ok {
		form := url.Values{"username": {basic.Username}, "password": {basic.Password}}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL+"/login", strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, loginURL+"/profile", http.NoBody)
		if err == nil {
			err = c.auth.Apply(req)
		}
	}
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create login request")
	}
	req.Header.Set("User-Agent", meteohttp.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &pkgerrors.RemoteUnavailableError{URL: req.URL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		logger.Debug("earthdata login succeeded", logger.Fields{"method": string(c.auth.Type())})
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrInvalidCredentials
	default:
		return &pkgerrors.RemoteUnavailableError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
}

func (c *Client) checkCredentials() error {
	switch a := c.auth.(type) {
	case auth.BasicAuth:
		if a.Empty() {
			return pkgerrors.Wrap(pkgerrors.ErrMissingCredentials, "IMERG requires an Earthdata username and password")
		}
	case auth.BearerAuth:
		if a.Token == "" {
			return pkgerrors.Wrap(pkgerrors.ErrMissingCredentials, "IMERG requires an Earthdata token")
		}
	case nil:
		return pkgerrors.ErrMissingCredentials
	}
	return nil
}

func (c *Client) locate(_ context.Context, req product.Request) (product.Locator, error) {
	return Locate(c.baseURL, req)
}

// Package http builds the HTTP client shared by the product clients.
//
// Go's client drops the Authorization header when a redirect leaves the
// original host. Data archives behind single sign-on (NASA Earthdata) redirect
// to a login host and back, so the redirect policy here re-applies the
// request's Authenticator to the original host and to an explicit allow-list
// of auth hosts, and never anywhere else.
package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"strings"
	"time"

	"github.com/hydromet/meteosat/pkg/auth"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "meteosat/1.0"

	// DefaultTimeout bounds a whole request including the body transfer.
	// Zero disables the timeout.
	DefaultTimeout = 0

	maxRedirects = 10
)

// EarthdataLoginHost is the NASA Earthdata Login host GES DISC redirects to.
const EarthdataLoginHost = "urs.earthdata.nasa.gov"

// Options configure NewClient.
type Options struct {
	Timeout   time.Duration
	AuthHosts []string // hosts, besides the original one, that may receive credentials
}

type authKey struct{}

type authContext struct {
	authenticator auth.Authenticator
	originHost    string
}

// WithAuthenticator attaches a to ctx so that the redirect policy of a client
// built by NewClient can re-apply it. originHost is the host of the first
// request.
func WithAuthenticator(ctx context.Context, a auth.Authenticator, originHost string) context.Context {
	if a == nil {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, authContext{authenticator: a, originHost: originHost})
}

// NewClient creates an *http.Client with a cookie jar and the credential
// forwarding redirect policy.
func NewClient(opts Options) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	authHosts := make([]string, 0, len(opts.AuthHosts))
	for _, h := range opts.AuthHosts {
		authHosts = append(authHosts, strings.ToLower(h))
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			ac, ok := req.Context().Value(authKey{}).(authContext)
			if !ok {
				return nil
			}
			host := strings.ToLower(req.URL.Host)
			if host == strings.ToLower(ac.originHost) ||
				slices.Contains(authHosts, host) || slices.Contains(authHosts, hostname(host)) {
				return ac.authenticator.Apply(req)
			}
			return nil
		},
	}, nil
}

// hostname strips a port from host.
func hostname(host string) string {
	if i := strings.LastIndexByte(host, ':'); i > 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}

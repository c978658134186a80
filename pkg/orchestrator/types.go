//go:generate mockgen -destination=./mocks/orchestrator.go . Fetcher,HookRunner

package orchestrator

import (
	"context"
	"net/http"
	"time"

	"github.com/hydromet/meteosat/pkg/auth"
	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/hooks"
	"github.com/hydromet/meteosat/pkg/product"
)

// Fetcher materializes a locator on disk. *download.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, loc product.Locator, a auth.Authenticator, outPath string) (download.Result, error)
}

// HookRunner executes user scripts around a download. *hooks.Manager
// implements it.
type HookRunner interface {
	Execute(ctx context.Context, hookType hooks.HookType, hc hooks.HookContext) error
}

// LocateFunc turns a validated request into a locator.
type LocateFunc func(ctx context.Context, req product.Request) (product.Locator, error)

// Event represents a simple progress notification.
type Event struct {
	Phase   string // validating|locating|downloading|done|error
	Product string
	Msg     string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Settings is the configuration shared by the product clients. Source
// packages read the fields that apply to them.
type Settings struct {
	Fetcher       Fetcher
	Clock         func() time.Time
	BaseURL       string             // overrides the source's default endpoint
	Remote        string             // sync tool remote name (MSWEP)
	Email         string             // contact address sent with CHRS portal requests (PERSIANN)
	Authenticator auth.Authenticator // overrides credentials derived by the client
	Scripts       HookRunner
	Hooks         Hooks
	Download      download.Options // used when no Fetcher is given
}

// Option mutates Settings.
type Option func(*Settings)

// WithFetcher replaces the default HTTP/sync fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Settings) { s.Fetcher = f }
}

// WithClock sets the reference clock for availability checks.
func WithClock(now func() time.Time) Option {
	return func(s *Settings) { s.Clock = now }
}

// WithBaseURL overrides the source's default endpoint.
func WithBaseURL(u string) Option {
	return func(s *Settings) { s.BaseURL = u }
}

// WithHooks runs the given pre/post-download scripts.
func WithHooks(r HookRunner) Option {
	return func(s *Settings) { s.Scripts = r }
}

// WithEventHandler receives progress events.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Settings) { s.Hooks.OnEvent = fn }
}

// WithDownloadOptions configures the default fetcher.
func WithDownloadOptions(o download.Options) Option {
	return func(s *Settings) {
		syncer := s.Download.Syncer
		s.Download = o
		if o.Syncer == nil {
			s.Download.Syncer = syncer
		}
	}
}

// WithSyncer sets the sync tool used by the default fetcher.
func WithSyncer(sy download.Syncer) Option {
	return func(s *Settings) { s.Download.Syncer = sy }
}

// WithRemote sets the sync tool remote name.
func WithRemote(name string) Option {
	return func(s *Settings) { s.Remote = name }
}

// WithEmail sets the contact address for portals that require one.
func WithEmail(email string) Option {
	return func(s *Settings) { s.Email = email }
}

// WithAuthenticator overrides the credentials a client would derive itself.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(s *Settings) { s.Authenticator = a }
}

// NewSettings applies opts over the defaults.
func NewSettings(opts ...Option) Settings {
	s := Settings{Clock: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	return s
}

// HTTPClient returns a plain client for auxiliary requests (queries, login
// checks) that honors the download timeout.
func (s Settings) HTTPClient() *http.Client {
	if s.Download.Client != nil {
		return s.Download.Client
	}
	return &http.Client{Timeout: s.Download.Timeout}
}

// Package download retrieves a located product into a local file.
//
// Every download goes to a temporary sibling of the output path and is renamed
// into place only once it is complete, decompressed and non-empty. On any
// failure the temporary files are removed and the output path is left as it
// was.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/archive"
	"github.com/hydromet/meteosat/pkg/auth"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/fsutil"
	meteohttp "github.com/hydromet/meteosat/pkg/http"
	"github.com/hydromet/meteosat/pkg/product"
)

// Options configure a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	AuthHosts []string // hosts that may receive credentials on redirect
	Syncer    Syncer   // used for product.StrategySync, defaults to rclone
	Client    *http.Client
}

// Fetcher materializes product locators on disk.
type Fetcher struct {
	client    *http.Client
	userAgent string
	syncer    Syncer
	archives  *archive.Manager
}

// NewFetcher creates a Fetcher. A nil opts.Client gets a client from
// pkg/http with opts.Timeout and opts.AuthHosts.
func NewFetcher(opts Options) (*Fetcher, error) {
	client := opts.Client
	if client == nil {
		var err error
		client, err = meteohttp.NewClient(meteohttp.Options{Timeout: opts.Timeout, AuthHosts: opts.AuthHosts})
		if err != nil {
			return nil, err
		}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = meteohttp.DefaultUserAgent
	}
	syncer := opts.Syncer
	if syncer == nil {
		syncer = NewRcloneSyncer(DefaultRcloneCommand)
	}
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		syncer:    syncer,
		archives:  archive.NewManager(),
	}, nil
}

// Fetch retrieves loc into outPath. a may be nil.
func (f *Fetcher) Fetch(ctx context.Context, loc product.Locator, a auth.Authenticator, outPath string) (Result, error) {
	if outPath == "" {
		return Result{}, &pkgerrors.WriteError{Path: outPath, Op: "resolve", Err: errors.New("empty output path")}
	}
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return Result{}, &pkgerrors.WriteError{Path: dir, Op: "create directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, fsutil.TempPattern)
	if err != nil {
		return Result{}, &pkgerrors.WriteError{Path: dir, Op: "create temp file in", Err: err}
	}
	temps := []string{tmp.Name()}
	defer func() { fsutil.RemoveQuietly(temps...) }()

	logger.Debug("fetching product", logger.Fields{"source": loc.String(), "strategy": loc.Strategy.String(), "out": outPath})

	switch loc.Strategy {
	case product.StrategyHTTP:
		err = f.get(ctx, loc.URL, a, tmp)
		if closeErr := tmp.Close(); err == nil && closeErr != nil {
			err = &pkgerrors.WriteError{Path: tmp.Name(), Op: "close", Err: closeErr}
		}
	case product.StrategySync:
		_ = tmp.Close()
		err = f.syncer.Sync(ctx, loc.Remote, tmp.Name())
	default:
		_ = tmp.Close()
		err = fmt.Errorf("unknown strategy %s", loc.Strategy)
	}
	if err != nil {
		return Result{}, err
	}

	payload, err := f.decompress(ctx, loc, tmp.Name(), dir, &temps)
	if err != nil {
		return Result{}, err
	}

	size, err := fsutil.FileSize(payload)
	if err != nil {
		return Result{}, &pkgerrors.WriteError{Path: payload, Op: "stat", Err: err}
	}
	if size == 0 {
		return Result{}, &pkgerrors.WriteError{Path: outPath, Op: "write", Err: errors.New("downloaded file is empty")}
	}
	if err := os.Chmod(payload, fsutil.FileModeDefault); err != nil {
		return Result{}, &pkgerrors.WriteError{Path: payload, Op: "set permissions on", Err: err}
	}
	if err := fsutil.Move(payload, outPath); err != nil {
		return Result{}, &pkgerrors.WriteError{Path: outPath, Op: "finalize", Err: err}
	}

	logger.Info("download complete", logger.Fields{"path": outPath, "size": humanize.Bytes(uint64(size))})
	return Result{Path: outPath, Source: loc.String(), Strategy: loc.Strategy, Bytes: size}, nil
}

// get streams rawURL into w.
func (f *Fetcher) get(ctx context.Context, rawURL string, a auth.Authenticator, w io.Writer) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &pkgerrors.RemoteUnavailableError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(meteohttp.WithAuthenticator(ctx, a, u.Host), http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return &pkgerrors.RemoteUnavailableError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	if a != nil {
		if err := a.Apply(req); err != nil {
			return pkgerrors.Wrap(err, "failed to apply authentication")
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &pkgerrors.RemoteUnavailableError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &pkgerrors.RemoteUnavailableError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	ew := &errWriter{w: w}
	if _, err := io.Copy(ew, newProgressReader(resp.Body, rawURL, resp.ContentLength)); err != nil {
		if ew.err != nil {
			return &pkgerrors.WriteError{Path: nameOf(w), Op: "write", Err: ew.err}
		}
		return &pkgerrors.RemoteUnavailableError{URL: rawURL, Err: err}
	}
	if s, ok := w.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return &pkgerrors.WriteError{Path: nameOf(w), Op: "sync", Err: err}
		}
	}
	return nil
}

// decompress unpacks the payload according to loc.Compression and returns the
// path of the file to finalize. New temporary files are appended to temps.
func (f *Fetcher) decompress(ctx context.Context, loc product.Locator, src, dir string, temps *[]string) (string, error) {
	if loc.Compression == product.CompressionNone {
		return src, nil
	}

	out, err := os.CreateTemp(dir, fsutil.TempPattern)
	if err != nil {
		return "", &pkgerrors.WriteError{Path: dir, Op: "create temp file in", Err: err}
	}
	_ = out.Close()
	*temps = append(*temps, out.Name())

	switch loc.Compression {
	case product.CompressionGzip:
		err = f.archives.Gunzip(ctx, src, out.Name())
	case product.CompressionZip:
		var member string
		member, err = f.archives.ExtractMember(ctx, src, loc.Member, out.Name())
		if err == nil {
			logger.Debug("extracted archive member", logger.Fields{"member": member})
		}
	default:
		err = fmt.Errorf("unknown compression %d", loc.Compression)
	}
	if err != nil {
		return "", &pkgerrors.WriteError{Path: src, Op: "decompress", Err: err}
	}

	fsutil.RemoveQuietly(src)
	return out.Name(), nil
}

// errWriter records the first write error so that a failed copy can be
// attributed to the local disk rather than the remote.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil && e.err == nil {
		e.err = err
	}
	return n, err
}

func nameOf(w io.Writer) string {
	if n, ok := w.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

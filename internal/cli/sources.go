package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/chirps"
	"github.com/hydromet/meteosat/pkg/cmorph"
	"github.com/hydromet/meteosat/pkg/config"
	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/hooks"
	"github.com/hydromet/meteosat/pkg/imerg"
	"github.com/hydromet/meteosat/pkg/mswep"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/persiann"
	"github.com/hydromet/meteosat/pkg/product"
)

// Source is the part of a product client the commands need.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req product.Request) (download.Result, error)
	Locate(ctx context.Context, req product.Request) (product.Locator, error)
}

type sourceInfo struct {
	descriptor product.Descriptor
	extension  string
	endpoint   func(cfg *config.Config) string
	build      func(cfg *config.Config, opts []orchestrator.Option) (Source, error)
}

var sources = map[string]sourceInfo{
	"chirps": {
		descriptor: chirps.Descriptor,
		extension:  ".tif",
		endpoint:   func(cfg *config.Config) string { return cfg.Endpoints.CHIRPS },
		build: func(_ *config.Config, opts []orchestrator.Option) (Source, error) {
			return chirps.New(opts...)
		},
	},
	"cmorph": {
		descriptor: cmorph.Descriptor,
		extension:  ".nc",
		endpoint:   func(cfg *config.Config) string { return cfg.Endpoints.CMORPH },
		build: func(_ *config.Config, opts []orchestrator.Option) (Source, error) {
			return cmorph.New(opts...)
		},
	},
	"mswep": {
		descriptor: mswep.Descriptor,
		extension:  ".nc",
		build: func(cfg *config.Config, opts []orchestrator.Option) (Source, error) {
			opts = append(opts,
				mswep.WithRemote(cfg.MSWEP.Remote),
				mswep.WithNRTBaseURL(cfg.MSWEP.NRTBaseURL),
				mswep.WithSyncer(download.NewRcloneSyncer(cfg.MSWEP.RcloneCommand, cfg.MSWEP.Flags...)),
			)
			return mswep.New(opts...)
		},
	},
	"imerg": {
		descriptor: imerg.Descriptor,
		extension:  ".nc4",
		endpoint:   func(cfg *config.Config) string { return cfg.Endpoints.IMERG },
		build: func(cfg *config.Config, opts []orchestrator.Option) (Source, error) {
			if a := cfg.Earthdata.Authenticator(); a != nil {
				opts = append(opts, orchestrator.WithAuthenticator(a))
			}
			return imerg.New(cfg.Earthdata.Username, cfg.Earthdata.Password, opts...)
		},
	},
	"persiann": {
		descriptor: persiann.Descriptor,
		extension:  ".tif",
		endpoint:   func(cfg *config.Config) string { return cfg.Endpoints.PERSIANN },
		build: func(cfg *config.Config, opts []orchestrator.Option) (Source, error) {
			return persiann.New(append(opts, persiann.WithEmail(cfg.PERSIANN.Email))...)
		},
	},
}

// sourceNames returns the accepted source arguments, sorted.
func sourceNames() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupSource(name string) (sourceInfo, error) {
	info, ok := sources[strings.ToLower(name)]
	if !ok {
		return sourceInfo{}, fmt.Errorf("unknown source %q (valid: %s)", name, strings.Join(sourceNames(), ", "))
	}
	return info, nil
}

// newSource builds the client for name with the hooks directory and
// download settings from cfg. onEvent may be nil.
func newSource(cfg *config.Config, name string, onEvent func(orchestrator.Event)) (Source, error) {
	info, err := lookupSource(name)
	if err != nil {
		return nil, err
	}

	scripts := hooks.NewHookManager()
	if err := hooks.LoadDir(scripts, cfg.Hooks.Dir); err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}
	for _, t := range hooks.Types {
		if scripts.HasHook(t) {
			logger.Debug("hook loaded", logger.Fields{"type": string(t), "dir": cfg.Hooks.Dir})
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithDownloadOptions(cfg.DownloadOptions()),
		orchestrator.WithHooks(scripts),
	}
	if onEvent != nil {
		opts = append(opts, orchestrator.WithEventHandler(onEvent))
	}
	if info.endpoint != nil {
		if u := info.endpoint(cfg); u != "" {
			opts = append(opts, orchestrator.WithBaseURL(u))
		}
	}
	return info.build(cfg, opts)
}

// defaultFileName names the output of req when no path is given, e.g.
// "imerg_final_v07_daily_20200101.nc4".
func defaultFileName(source string, req product.Request) string {
	info, err := lookupSource(source)
	ext := ""
	if err == nil {
		ext = info.extension
	}

	parts := []string{strings.ToLower(source)}
	for _, p := range []string{req.Dataset, req.Run, req.Version} {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	parts = append(parts, string(req.Timestep), dateStamp(req))
	return strings.Join(parts, "_") + ext
}

func dateStamp(req product.Request) string {
	t := req.Date.UTC()
	switch req.Timestep {
	case product.Annual:
		return t.Format("2006")
	case product.Monthly:
		return t.Format("200601")
	case product.Daily:
		return t.Format("20060102")
	default:
		return t.Format("200601021504")
	}
}

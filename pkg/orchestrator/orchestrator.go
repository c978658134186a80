// Package orchestrator runs the validate, locate and fetch pipeline shared
// by every product client.
package orchestrator

import (
	"context"
	"time"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/auth"
	"github.com/hydromet/meteosat/pkg/download"
	"github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/hooks"
	"github.com/hydromet/meteosat/pkg/product"
)

// Dispatcher ties validation, location, hooks and the Fetcher together.
// It is read-only after construction and safe for concurrent use.
type Dispatcher struct {
	Fetcher Fetcher
	Clock   func() time.Time
	Scripts HookRunner
	Hooks   Hooks // Hooks for progress and event notifications
}

// NewDispatcher builds a Dispatcher from s, creating the default
// download.Fetcher when s.Fetcher is nil.
func NewDispatcher(s Settings) (*Dispatcher, error) {
	fetcher := s.Fetcher
	if fetcher == nil {
		f, err := download.NewFetcher(s.Download)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create fetcher")
		}
		fetcher = f
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{Fetcher: fetcher, Clock: clock, Scripts: s.Scripts, Hooks: s.Hooks}, nil
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Locate validates req against d and returns its locator without fetching.
func (o *Dispatcher) Locate(ctx context.Context, d product.Descriptor, locate LocateFunc, req product.Request) (product.Locator, error) {
	emit(o.Hooks, Event{Phase: "validating", Product: d.Name, Msg: req.Date.UTC().Format(time.RFC3339)})
	if err := product.Validate(d, req, o.Clock()); err != nil {
		return product.Locator{}, err
	}
	emit(o.Hooks, Event{Phase: "locating", Product: d.Name})
	return locate(ctx, req)
}

// Run validates, locates and fetches req into req.OutPath.
func (o *Dispatcher) Run(ctx context.Context, d product.Descriptor, locate LocateFunc, req product.Request, a auth.Authenticator) (download.Result, error) {
	res, err := o.run(ctx, d, locate, req, a)
	if err != nil {
		emit(o.Hooks, Event{Phase: "error", Product: d.Name, Msg: err.Error()})
		return download.Result{}, err
	}
	emit(o.Hooks, Event{Phase: "done", Product: d.Name, Msg: res.Path})
	return res, nil
}

func (o *Dispatcher) run(ctx context.Context, d product.Descriptor, locate LocateFunc, req product.Request, a auth.Authenticator) (download.Result, error) {
	loc, err := o.Locate(ctx, d, locate, req)
	if err != nil {
		return download.Result{}, err
	}

	hc := hooks.HookContext{
		Product:  d.Name,
		Date:     req.Date.UTC().Format(time.RFC3339),
		Timestep: string(req.Timestep),
		Source:   loc.String(),
		OutPath:  req.OutPath,
		Vars:     map[string]interface{}{"version": req.Version, "run": req.Run, "dataset": req.Dataset},
	}
	if o.Scripts != nil {
		if err := o.Scripts.Execute(ctx, hooks.PreDownload, hc); err != nil {
			return download.Result{}, err
		}
	}

	emit(o.Hooks, Event{Phase: "downloading", Product: d.Name, Msg: loc.String()})
	logger.Debug("downloading", logger.Fields{"product": d.Name, "source": loc.String(), "out": req.OutPath})
	res, err := o.Fetcher.Fetch(ctx, loc, a, req.OutPath)
	if err != nil {
		return download.Result{}, err
	}

	if o.Scripts != nil {
		hc.Vars["bytes"] = res.Bytes
		if err := o.Scripts.Execute(ctx, hooks.PostDownload, hc); err != nil {
			return download.Result{}, err
		}
	}
	return res, nil
}

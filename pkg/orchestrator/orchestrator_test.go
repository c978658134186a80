package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hydromet/meteosat/pkg/download"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/hooks"
	ocmocks "github.com/hydromet/meteosat/pkg/orchestrator/mocks"
	"github.com/hydromet/meteosat/pkg/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testDescriptor = product.Descriptor{
	Name:      "TEST",
	Timesteps: []product.Timestep{product.Daily},
	Windows:   []product.Window{{Start: product.Date(2000, time.January, 1)}},
}

var testNow = func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) }

func testLocate(_ context.Context, req product.Request) (product.Locator, error) {
	return product.Locator{URL: "https://example.com/" + req.Date.Format("20060102") + ".nc"}, nil
}

func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := ocmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		Fetch(gomock.Any(), product.Locator{URL: "https://example.com/20200102.nc"}, nil, "/data/out.nc").
		Return(download.Result{Path: "/data/out.nc", Bytes: 10}, nil).
		Times(1)

	var phases []string
	d := &Dispatcher{
		Fetcher: fetcher,
		Clock:   testNow,
		Hooks:   Hooks{OnEvent: func(e Event) { phases = append(phases, e.Phase) }},
	}

	req := product.Request{Date: product.Date(2020, time.January, 2), Timestep: product.Daily, OutPath: "/data/out.nc"}
	res, err := d.Run(context.Background(), testDescriptor, testLocate, req, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Bytes)
	assert.Equal(t, []string{"validating", "locating", "downloading", "done"}, phases)
}

func TestRun_InvalidRequestSkipsFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := ocmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	scripts := ocmocks.NewMockHookRunner(ctrl)
	scripts.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	var lastPhase string
	d := &Dispatcher{Fetcher: fetcher, Clock: testNow, Scripts: scripts,
		Hooks: Hooks{OnEvent: func(e Event) { lastPhase = e.Phase }}}

	tests := []product.Request{
		{Date: product.Date(1999, time.December, 31), Timestep: product.Daily, OutPath: "x"},
		{Date: product.Date(2020, time.January, 1), Timestep: product.Monthly, OutPath: "x"},
	}
	for _, req := range tests {
		_, err := d.Run(context.Background(), testDescriptor, testLocate, req, nil)
		require.ErrorIs(t, err, pkgerrors.ErrUnsupportedParameter)
		assert.Equal(t, "error", lastPhase)
	}
}

func TestRun_Hooks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := ocmocks.NewMockFetcher(ctrl)
	scripts := ocmocks.NewMockHookRunner(ctrl)

	gomock.InOrder(
		scripts.EXPECT().Execute(gomock.Any(), hooks.PreDownload, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ hooks.HookType, hc hooks.HookContext) error {
				assert.Equal(t, "TEST", hc.Product)
				assert.Equal(t, "2020-01-02T00:00:00Z", hc.Date)
				assert.Equal(t, "https://example.com/20200102.nc", hc.Source)
				return nil
			}),
		fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), "out.nc").
			Return(download.Result{Path: "out.nc", Bytes: 42}, nil),
		scripts.EXPECT().Execute(gomock.Any(), hooks.PostDownload, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ hooks.HookType, hc hooks.HookContext) error {
				assert.Equal(t, int64(42), hc.Vars["bytes"])
				return nil
			}),
	)

	d := &Dispatcher{Fetcher: fetcher, Clock: testNow, Scripts: scripts}
	req := product.Request{Date: product.Date(2020, time.January, 2), Timestep: product.Daily, OutPath: "out.nc"}
	_, err := d.Run(context.Background(), testDescriptor, testLocate, req, nil)
	require.NoError(t, err)
}

func TestRun_PreHookVetoes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := ocmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	scripts := ocmocks.NewMockHookRunner(ctrl)
	scripts.EXPECT().Execute(gomock.Any(), hooks.PreDownload, gomock.Any()).Return(hooks.ErrHookScript)

	d := &Dispatcher{Fetcher: fetcher, Clock: testNow, Scripts: scripts}
	req := product.Request{Date: product.Date(2020, time.January, 2), Timestep: product.Daily, OutPath: "out.nc"}
	_, err := d.Run(context.Background(), testDescriptor, testLocate, req, nil)
	require.ErrorIs(t, err, hooks.ErrHookScript)
}

func TestRun_FetchErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	want := &pkgerrors.RemoteUnavailableError{URL: "u", StatusCode: 404}
	fetcher := ocmocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(download.Result{}, want)

	d := &Dispatcher{Fetcher: fetcher, Clock: testNow}
	req := product.Request{Date: product.Date(2020, time.January, 2), Timestep: product.Daily, OutPath: "out.nc"}
	_, err := d.Run(context.Background(), testDescriptor, testLocate, req, nil)
	assert.True(t, errors.Is(err, pkgerrors.ErrRemoteUnavailable))
}

func TestLocate_NoFetch(t *testing.T) {
	d := &Dispatcher{Clock: testNow}
	loc, err := d.Locate(context.Background(), testDescriptor, testLocate,
		product.Request{Date: product.Date(2020, time.March, 4), Timestep: product.Daily})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/20200304.nc", loc.URL)
}

func TestNewSettings(t *testing.T) {
	fixed := testNow()
	s := NewSettings(
		WithClock(func() time.Time { return fixed }),
		WithBaseURL("http://mirror"),
		WithRemote("gdrive"),
		WithDownloadOptions(download.Options{UserAgent: "ua"}),
	)
	assert.Equal(t, fixed, s.Clock())
	assert.Equal(t, "http://mirror", s.BaseURL)
	assert.Equal(t, "gdrive", s.Remote)
	assert.Equal(t, "ua", s.Download.UserAgent)

	assert.NotNil(t, NewSettings().Clock)
}

func TestNewDispatcher_DefaultFetcher(t *testing.T) {
	d, err := NewDispatcher(NewSettings())
	require.NoError(t, err)
	assert.IsType(t, &download.Fetcher{}, d.Fetcher)
}

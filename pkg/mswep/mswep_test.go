package mswep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	dlmocks "github.com/hydromet/meteosat/pkg/download/mocks"
	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }

func TestLocate(t *testing.T) {
	date := time.Date(2020, time.February, 10, 6, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		timestep product.Timestep
		dataset  string
		strategy product.Strategy
		want     string
	}{
		{"past daily", product.Daily, Past, product.StrategySync, "GoogleDrive:/MSWEP_V280/Past/Daily/2020041.nc"},
		{"past 3hourly", product.ThreeHour, Past, product.StrategySync, "GoogleDrive:/MSWEP_V280/Past/3hourly/2020041.06.nc"},
		{"nogauge monthly", product.Monthly, PastNoGauge, product.StrategySync, "GoogleDrive:/MSWEP_V280/Past_nogauge/Monthly/202002.nc"},
		{"nrt daily", product.Daily, NRT, product.StrategyHTTP, DefaultNRTBaseURL + "/Daily/2020041.nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Locate(DefaultRemote, DefaultNRTBaseURL, product.Request{Date: date, Timestep: tt.timestep, Dataset: tt.dataset})
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, loc.Strategy)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}

func TestFileName_PadsDayOfYear(t *testing.T) {
	name, err := FileName(product.Request{Date: product.Date(2020, time.January, 1), Timestep: product.Daily})
	require.NoError(t, err)
	assert.Equal(t, "2020001.nc", name)
}

func TestDownload_Past(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	syncer := dlmocks.NewMockSyncer(ctrl)
	syncer.EXPECT().Sync(gomock.Any(), "gdrive:/MSWEP_V280/Past/Daily/2020001.nc", gomock.Any()).DoAndReturn(
		func(_ context.Context, _, dest string) error {
			return os.WriteFile(dest, []byte("CDF\x01mswep"), 0o600)
		},
	).Times(1)

	c, err := New(WithRemote("gdrive"), WithSyncer(syncer), orchestrator.WithClock(fixedNow))
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "mswep.nc")
	require.NoError(t, c.Download(context.Background(), product.Date(2020, time.January, 1), product.Daily, Past, outPath))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "CDF\x01mswep", string(got))
}

func TestDownload_SyncToolFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	syncer := dlmocks.NewMockSyncer(ctrl)
	syncer.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&pkgerrors.SyncToolError{Tool: "rclone", ExitCode: 1, Output: "didn't find section in config file"})

	c, err := New(WithSyncer(syncer), orchestrator.WithClock(fixedNow))
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "mswep.nc")
	err = c.Download(context.Background(), product.Date(2020, time.January, 1), product.Daily, PastNoGauge, outPath)
	require.ErrorIs(t, err, pkgerrors.ErrSyncToolFailure)
	assert.NoFileExists(t, outPath)
}

func TestDownload_NRT(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	syncer := dlmocks.NewMockSyncer(ctrl)
	syncer.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Monthly/202401.nc" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("nrt"))
	}))
	defer srv.Close()

	c, err := New(WithNRTBaseURL(srv.URL), WithSyncer(syncer), orchestrator.WithClock(fixedNow))
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "nrt.nc")
	require.NoError(t, c.Download(context.Background(), product.Date(2024, time.January, 1), product.Monthly, NRT, outPath))
	assert.FileExists(t, outPath)
}

func TestDownload_InvalidRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	syncer := dlmocks.NewMockSyncer(ctrl)
	syncer.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	c, err := New(WithSyncer(syncer), orchestrator.WithClock(fixedNow))
	require.NoError(t, err)

	tests := []struct {
		name     string
		date     time.Time
		timestep product.Timestep
		dataset  string
		field    string
	}{
		{"missing dataset", product.Date(2020, time.January, 1), product.Daily, "", "dataset"},
		{"unknown dataset", product.Date(2020, time.January, 1), product.Daily, "NTR", "dataset"},
		{"hourly", product.Date(2020, time.January, 1), product.Hourly, Past, "timestep"},
		{"before 1979", product.Date(1978, time.December, 31), product.Daily, Past, "date"},
		{"nrt before start", product.Date(2019, time.June, 1), product.Daily, NRT, "date"},
		{"misaligned 3hourly", time.Date(2020, time.January, 1, 4, 0, 0, 0, time.UTC), product.ThreeHour, Past, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Download(context.Background(), tt.date, tt.timestep, tt.dataset, filepath.Join(t.TempDir(), "x.nc"))
			var upe *pkgerrors.UnsupportedParameterError
			require.ErrorAs(t, err, &upe)
			assert.Equal(t, tt.field, upe.Field)
		})
	}
}

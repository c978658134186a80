package cmorph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/hydromet/meteosat/pkg/errors"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/hydromet/meteosat/pkg/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC) }

func TestLocate(t *testing.T) {
	date := time.Date(2020, time.January, 1, 5, 30, 0, 0, time.UTC)
	tests := []struct {
		timestep product.Timestep
		want     string
	}{
		{product.HalfHourly, DefaultBaseURL + "/30min/8km/2020/01/01/CMORPH_V1.0_ADJ_8km-30min_2020010105.nc"},
		{product.Hourly, DefaultBaseURL + "/hourly/0.25deg/2020/01/01/CMORPH_V1.0_ADJ_0.25deg-HLY_2020010105.nc"},
		{product.Daily, DefaultBaseURL + "/daily/0.25deg/2020/01/CMORPH_V1.0_ADJ_0.25deg-DLY_00Z_20200101.nc"},
	}

	for _, tt := range tests {
		t.Run(string(tt.timestep), func(t *testing.T) {
			loc, err := Locate(DefaultBaseURL, product.Request{Date: date, Timestep: tt.timestep})
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.URL)
			assert.Equal(t, product.CompressionNone, loc.Compression)
		})
	}

	_, err := Locate(DefaultBaseURL, product.Request{Date: date, Timestep: product.Monthly})
	require.ErrorIs(t, err, pkgerrors.ErrUnsupportedParameter)
}

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/daily/0.25deg/2020/01/CMORPH_V1.0_ADJ_0.25deg-DLY_00Z_20200101.nc" {
			_, _ = w.Write([]byte("CDF\x01cmorph"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(orchestrator.WithBaseURL(srv.URL), orchestrator.WithClock(fixedNow))
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out", "cmorph.nc")
	require.NoError(t, c.Download(context.Background(), product.Date(2020, time.January, 1), product.Daily, outPath))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "CDF\x01cmorph", string(got))

	// Re-downloading overwrites the same file.
	require.NoError(t, c.Download(context.Background(), product.Date(2020, time.January, 1), product.Daily, outPath))
	entries, err := os.ReadDir(filepath.Dir(outPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	err = c.Download(context.Background(), product.Date(2020, time.January, 2), product.Daily, outPath+".2")
	require.ErrorIs(t, err, pkgerrors.ErrRemoteUnavailable)
	assert.NoFileExists(t, outPath+".2")

	hitsBefore := hits.Load()
	err = c.Download(context.Background(), product.Date(1997, time.December, 31), product.Daily, outPath)
	require.ErrorIs(t, err, pkgerrors.ErrUnsupportedParameter)
	err = c.Download(context.Background(), product.Date(2020, time.January, 1), product.Annual, outPath)
	require.ErrorIs(t, err, pkgerrors.ErrUnsupportedParameter)
	assert.Equal(t, hitsBefore, hits.Load())
}

// Package imerg downloads GPM Integrated Multi-satellitE Retrievals (IMERG)
// files from the NASA GES DISC OPeNDAP server.
//
// GES DISC requires a NASA Earthdata Login account. Credentials are held in
// memory for the lifetime of a Client and are only ever sent to GES DISC and
// the Earthdata Login host.
package imerg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultBaseURL is the GES DISC OPeNDAP root.
const DefaultBaseURL = "https://gpm1.gesdisc.eosdis.nasa.gov/opendap"

// Runs.
const (
	Early = "early"
	Late  = "late"
	Final = "final"
)

// Versions.
const (
	V06 = "v06"
	V07 = "v07"
)

const day = 24 * time.Hour

// v07 introduced the "B" suffix on final daily files.
var v07 = version.Must(version.NewVersion("7"))

// Descriptor lists what IMERG serves.
var Descriptor = product.Descriptor{
	Name:         "IMERG",
	Timesteps:    []product.Timestep{product.HalfHourly, product.Daily, product.Monthly},
	Versions:     []string{V06, V07},
	Runs:         []string{Early, Late, Final},
	RequiresAuth: true,
	Windows: []product.Window{
		{Run: Early, Start: product.Date(2000, time.June, 1), Latency: 4 * time.Hour},
		{Run: Late, Start: product.Date(2000, time.June, 1), Latency: 14 * time.Hour},
		{Version: V06, Start: product.Date(2000, time.June, 1), Latency: 105 * day},
		{Start: product.Date(1998, time.January, 1), Latency: 105 * day},
	},
	Rules: []product.Rule{
		noMonthlyNearRealTime,
		product.Aligned("IMERG", product.HalfHourly, 30*time.Minute),
	},
}

func noMonthlyNearRealTime(req product.Request) error {
	if req.Run != Final && req.Timestep == product.Monthly {
		return product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep), "30min", "daily")
	}
	return nil
}

// Locate returns the OPeNDAP locator for req under baseURL.
func Locate(baseURL string, req product.Request) (product.Locator, error) {
	v, err := version.NewVersion(req.Version)
	if err != nil || len(v.Segments()) == 0 {
		return product.Locator{}, product.Unsupported(Descriptor.Name, "version", req.Version, Descriptor.Versions...)
	}
	vv := fmt.Sprintf("%02d", v.Segments()[0])

	t := req.Date.UTC()
	base := strings.TrimRight(baseURL, "/")
	year := t.Format("2006")
	month := t.Format("01")
	ymd := t.Format("20060102")
	doy := fmt.Sprintf("%03d", t.YearDay())
	minuteCode := fmt.Sprintf("%04d", t.Hour()*60+t.Minute())
	start := t.Format("150405")
	end := t.Add(1799 * time.Second).Format("150405")

	variable := "precipitation"
	if v.LessThan(v07) {
		variable = "precipitationCal"
	}

	var url string
	switch {
	case req.Run == Final && req.Timestep == product.HalfHourly:
		url = fmt.Sprintf("%s/GPM_L3/GPM_3IMERGHH.%s/%s/%s/3B-HHR.MS.MRG.3IMERG.%s-S%s-E%s.%s.V%sB.HDF5.nc4?",
			base, vv, year, doy, ymd, start, end, minuteCode, vv)
	case req.Run == Final && req.Timestep == product.Daily:
		suffix := ".nc4.nc4?"
		if v.GreaterThanOrEqual(v07) {
			suffix = "B.nc4.nc4?"
		}
		url = fmt.Sprintf("%s/GPM_L3/GPM_3IMERGDF.%s/%s/%s/3B-DAY.MS.MRG.3IMERG.%s-S000000-E235959.V%s%s",
			base, vv, year, month, ymd, vv, suffix)
	case req.Run == Final && req.Timestep == product.Monthly:
		url = fmt.Sprintf("%s/GPM_L3/GPM_3IMERGM.%s/%s/3B-MO.MS.MRG.3IMERG.%s01-S000000-E235959.%s.V%sB.HDF5.nc4?",
			base, vv, year, t.Format("200601"), month, vv)
		variable = "precipitation"
	case (req.Run == Early || req.Run == Late) && req.Timestep == product.HalfHourly:
		collection, prefix := "HHE", "E"
		if req.Run == Late {
			collection, prefix = "HHL", "L"
		}
		url = fmt.Sprintf("%s/hyrax/GPM_L3/GPM_3IMERG%s.%s/%s/%s/3B-HHR-%s.MS.MRG.3IMERG.%s-S%s-E%s.%s.V%sB.HDF5.nc4?",
			base, collection, vv, year, doy, prefix, ymd, start, end, minuteCode, vv)
	case (req.Run == Early || req.Run == Late) && req.Timestep == product.Daily:
		collection, prefix := "DE", "E"
		if req.Run == Late {
			collection, prefix = "DL", "L"
		}
		url = fmt.Sprintf("%s/GPM_L3/GPM_3IMERG%s.%s/%s/%s/3B-DAY-%s.MS.MRG.3IMERG.%s-S000000-E235959.V%s.nc4.nc4?",
			base, collection, vv, year, month, prefix, ymd, vv)
	case req.Run != Early && req.Run != Late && req.Run != Final:
		return product.Locator{}, product.Unsupported(Descriptor.Name, "run", req.Run, Descriptor.Runs...)
	default:
		return product.Locator{}, noMonthlyOrTimestep(req)
	}

	return product.Locator{Strategy: product.StrategyHTTP, URL: url, Variable: variable}, nil
}

func noMonthlyOrTimestep(req product.Request) error {
	if err := noMonthlyNearRealTime(req); err != nil {
		return err
	}
	return product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep), "30min", "daily", "monthly")
}

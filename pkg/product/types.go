// Package product describes what each data source can serve and validates
// download requests against those capabilities before any I/O happens.
package product

import (
	"fmt"
	"time"
)

// Timestep is the temporal resolution of a requested data slice.
type Timestep string

// Supported timesteps across all products.
const (
	HalfHourly Timestep = "30min"
	Hourly     Timestep = "hourly"
	ThreeHour  Timestep = "3hourly"
	SixHour    Timestep = "6hourly"
	Daily      Timestep = "daily"
	Monthly    Timestep = "monthly"
	Annual     Timestep = "annual"
)

// Next returns the start of the slice following the one starting at t.
// Calendar steps follow the month and year lengths.
func (ts Timestep) Next(t time.Time) (time.Time, error) {
	switch ts {
	case HalfHourly:
		return t.Add(30 * time.Minute), nil
	case Hourly:
		return t.Add(time.Hour), nil
	case ThreeHour:
		return t.Add(3 * time.Hour), nil
	case SixHour:
		return t.Add(6 * time.Hour), nil
	case Daily:
		return t.AddDate(0, 0, 1), nil
	case Monthly:
		return t.AddDate(0, 1, 0), nil
	case Annual:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown timestep %q", string(ts))
	}
}

// Strategy selects how the Fetcher retrieves a locator.
type Strategy int

// Retrieval strategies.
const (
	// StrategyHTTP issues a GET for Locator.URL.
	StrategyHTTP Strategy = iota
	// StrategySync delegates to an external sync tool for Locator.Remote.
	StrategySync
)

func (s Strategy) String() string {
	switch s {
	case StrategyHTTP:
		return "http"
	case StrategySync:
		return "sync"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Compression describes how the remote stores the payload.
type Compression int

// Compression kinds.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZip
)

// Request holds the parameters of a single download call.
type Request struct {
	Date     time.Time
	Timestep Timestep
	Version  string // IMERG only
	Run      string // IMERG only
	Dataset  string // MSWEP and PERSIANN
	OutPath  string
}

// Locator is the remote address of one requested data slice.
// It is a pure function of the product descriptor and the request.
type Locator struct {
	Strategy    Strategy
	URL         string // set for StrategyHTTP
	Remote      string // set for StrategySync, e.g. "GoogleDrive:/MSWEP_V280/Past/Daily/2020001.nc"
	Compression Compression
	Member      string // file to keep from a zip payload; empty picks the first .tif
	Variable    string // name of the precipitation variable inside the file, when known
}

// String returns the URL or the remote path, whichever applies.
func (l Locator) String() string {
	if l.Strategy == StrategySync {
		return l.Remote
	}
	return l.URL
}

// Window is a period in which a product (or one of its timestep, version,
// run or dataset variants) has data. Empty selector fields match any value.
type Window struct {
	Timestep Timestep
	Version  string
	Run      string
	Dataset  string
	Start    time.Time
	End      time.Time     // zero means "still produced"
	Latency  time.Duration // delay before the newest data becomes available
}

func (w Window) matches(req Request) bool {
	return (w.Timestep == "" || w.Timestep == req.Timestep) &&
		(w.Version == "" || w.Version == req.Version) &&
		(w.Run == "" || w.Run == req.Run) &&
		(w.Dataset == "" || w.Dataset == req.Dataset)
}

// Rule is a cross-field check that cannot be expressed by the plain
// capability sets, e.g. "early and late runs have no monthly data".
type Rule func(req Request) error

// Descriptor is the static capability table of a product.
type Descriptor struct {
	Name         string
	Timesteps    []Timestep
	Versions     []string
	Runs         []string
	Datasets     []string
	RequiresAuth bool
	Windows      []Window
	Rules        []Rule
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

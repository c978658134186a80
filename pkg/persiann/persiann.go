// Package persiann downloads PERSIANN family GeoTIFFs from the UC Irvine
// Center for Hydrometeorology and Remote Sensing (CHRS) data portal.
//
// The portal does not expose stable file paths. A query first asks it to
// prepare a zip for the requested slice and returns a per-user ticket; the
// zip is then fetched from a path built from that ticket.
package persiann

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hydromet/meteosat/pkg/product"
)

// DefaultBaseURL is the CHRS data portal root.
const DefaultBaseURL = "https://chrsdata.eng.uci.edu"

// Datasets.
const (
	PERSIANN = "PERSIANN"
	CCS      = "CCS"
	CDR      = "CDR"
	PDIR     = "PDIR"
)

const day = 24 * time.Hour

// Descriptor lists what the CHRS portal serves.
var Descriptor = product.Descriptor{
	Name: "PERSIANN",
	Timesteps: []product.Timestep{
		product.Hourly, product.ThreeHour, product.SixHour,
		product.Daily, product.Monthly, product.Annual,
	},
	Datasets: []string{PERSIANN, CCS, CDR, PDIR},
	Windows: []product.Window{
		{Dataset: PERSIANN, Start: product.Date(2000, time.March, 1), Latency: 2 * day},
		{Dataset: CCS, Start: product.Date(2003, time.January, 1), Latency: 6 * time.Hour},
		{Dataset: CDR, Start: product.Date(1983, time.January, 1), Latency: 90 * day},
		{Dataset: PDIR, Start: product.Date(2000, time.March, 1), Latency: 6 * time.Hour},
	},
	Rules: []product.Rule{
		cdrIsDailyOrCoarser,
		product.Aligned("PERSIANN", product.ThreeHour, 3*time.Hour),
		product.Aligned("PERSIANN", product.SixHour, 6*time.Hour),
	},
}

func cdrIsDailyOrCoarser(req product.Request) error {
	if req.Dataset != CDR {
		return nil
	}
	switch req.Timestep {
	case product.Hourly, product.ThreeHour, product.SixHour:
		return product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep), "daily", "monthly", "annual")
	}
	return nil
}

// folders maps datasets to their directory on the portal.
var folders = map[string]string{
	PERSIANN: "PERSIANN",
	CCS:      "PERSIANN-CCS",
	CDR:      "PERSIANN-CDR",
	PDIR:     "PDIR",
}

type timestepCodes struct {
	layout string // date layout of startDate/endDate
	name   string // timestep parameter
	alt    string // timestepAlt parameter
}

var timestepParams = map[product.Timestep]timestepCodes{
	product.Hourly:    {"2006010215", "1hrly", "1h"},
	product.ThreeHour: {"2006010215", "3hrly", "3h"},
	product.SixHour:   {"2006010215", "6hrly", "6h"},
	product.Daily:     {"20060102", "daily", "1d"},
	product.Monthly:   {"200601", "monthly", "1m"},
	product.Annual:    {"2006", "yearly", "1y"},
}

// QueryParams returns the portal query for req.
func QueryParams(req product.Request) (url.Values, error) {
	codes, ok := timestepParams[req.Timestep]
	if !ok {
		return nil, product.Unsupported(Descriptor.Name, "timestep", string(req.Timestep),
			"hourly", "3hourly", "6hourly", "daily", "monthly", "annual")
	}
	if _, ok := folders[req.Dataset]; !ok {
		return nil, product.Unsupported(Descriptor.Name, "dataset", req.Dataset, Descriptor.Datasets...)
	}
	date := req.Date.UTC().Format(codes.layout)
	return url.Values{
		"startDate":   {date},
		"endDate":     {date},
		"timestep":    {codes.name},
		"timestepAlt": {codes.alt},
		"dataType":    {req.Dataset},
		"format":      {"Tif"},
		"compression": {"zip"},
	}, nil
}

// DownloadParams returns the parameters of the request that tells the
// portal to publish fileURL for req. The portal insists on a contact address.
func DownloadParams(req product.Request, fileURL, email string) (url.Values, error) {
	q, err := QueryParams(req)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"email":            {email},
		"downloadLink":     {fileURL},
		"fileExtension":    {"zip"},
		"dataType":         {req.Dataset},
		"startDate":        q["startDate"],
		"endDate":          q["endDate"],
		"timestep":         {string(req.Timestep)},
		"domain":           {"wholemap"},
		"domain_parameter": {"undefined"},
	}, nil
}

// QueryURL returns the URL that asks the portal to prepare req.
func QueryURL(baseURL string, req product.Request) (string, error) {
	params, err := QueryParams(req)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/php/downloadWholeData.php?" + params.Encode(), nil
}

// Ticket is the portal's answer to a query.
type Ticket struct {
	UserIP  string `json:"userIP"`
	ZipFile string `json:"zipFile"`
}

// Locate returns the zip prepared for ticket.
func Locate(baseURL string, req product.Request, ticket Ticket) (product.Locator, error) {
	folder, ok := folders[req.Dataset]
	if !ok {
		return product.Locator{}, product.Unsupported(Descriptor.Name, "dataset", req.Dataset, Descriptor.Datasets...)
	}
	u := fmt.Sprintf("%s/userFile/%s/temp/%s/%s_%s.zip",
		strings.TrimRight(baseURL, "/"), url.PathEscape(ticket.UserIP), folder, req.Dataset, url.PathEscape(ticket.ZipFile))
	return product.Locator{
		Strategy:    product.StrategyHTTP,
		URL:         u,
		Compression: product.CompressionZip,
	}, nil
}

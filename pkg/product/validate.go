package product

import (
	"fmt"
	"slices"
	"time"

	"github.com/hydromet/meteosat/pkg/errors"
)

const dateLayout = "2006-01-02 15:04"

// Validate checks req against the capabilities of d. now is the reference
// time for open-ended availability windows.
//
// Checks run in a fixed order (timestep, version, run, dataset, date, rules)
// so the first offending field is the one reported.
func Validate(d Descriptor, req Request, now time.Time) error {
	if !slices.Contains(d.Timesteps, req.Timestep) {
		return unsupported(d.Name, "timestep", string(req.Timestep), timestepStrings(d.Timesteps))
	}
	if err := checkSelector(d.Name, "version", req.Version, d.Versions); err != nil {
		return err
	}
	if err := checkSelector(d.Name, "run", req.Run, d.Runs); err != nil {
		return err
	}
	if err := checkSelector(d.Name, "dataset", req.Dataset, d.Datasets); err != nil {
		return err
	}
	if err := checkDate(d, req, now); err != nil {
		return err
	}
	for _, rule := range d.Rules {
		if err := rule(req); err != nil {
			return err
		}
	}
	return nil
}

// checkSelector validates an optional selector. A product that declares no
// values for a selector rejects any non-empty value for it.
func checkSelector(productName, field, value string, allowed []string) error {
	if len(allowed) == 0 {
		if value != "" {
			return unsupported(productName, field, value, []string{"(none)"})
		}
		return nil
	}
	if !slices.Contains(allowed, value) {
		return unsupported(productName, field, value, allowed)
	}
	return nil
}

func checkDate(d Descriptor, req Request, now time.Time) error {
	if req.Date.IsZero() {
		return unsupported(d.Name, "date", "", []string{"a non-zero date"})
	}
	w, ok := window(d, req)
	if !ok {
		return nil
	}

	end := now.Add(-w.Latency)
	if !w.End.IsZero() && w.End.Before(end) {
		end = w.End
	}

	date := req.Date.UTC()
	if date.Before(w.Start) || date.After(end) {
		return unsupported(d.Name, "date", date.Format(dateLayout),
			[]string{w.Start.Format(dateLayout) + " to " + end.UTC().Format(dateLayout)})
	}
	return nil
}

// window returns the first availability window matching req.
func window(d Descriptor, req Request) (Window, bool) {
	for _, w := range d.Windows {
		if w.matches(req) {
			return w, true
		}
	}
	return Window{}, false
}

// Unsupported builds the error returned for an out-of-range parameter. It is
// exported for Rules declared by the product packages.
func Unsupported(productName, field, value string, allowed ...string) error {
	return unsupported(productName, field, value, allowed)
}

func unsupported(productName, field, value string, allowed []string) error {
	return &errors.UnsupportedParameterError{
		Product: productName,
		Field:   field,
		Value:   value,
		Allowed: allowed,
	}
}

func timestepStrings(ts []Timestep) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

// Aligned returns a Rule requiring dates of timestep ts to fall on a multiple
// of step, e.g. half-hourly slots starting at :00 or :30.
func Aligned(productName string, ts Timestep, step time.Duration) Rule {
	return func(req Request) error {
		if req.Timestep != ts {
			return nil
		}
		date := req.Date.UTC()
		if !date.Truncate(step).Equal(date) {
			return unsupported(productName, "date", date.Format(dateLayout),
				[]string{fmt.Sprintf("%s slots aligned to %s", ts, step)})
		}
		return nil
	}
}

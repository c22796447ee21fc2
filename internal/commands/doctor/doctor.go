// Package doctor runs health checks over a quill installation: its
// configuration and the history store behind the composer.
package doctor

import "context"

// Status is the outcome of a single check item.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckItem is one finding of a check.
type CheckItem struct {
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Fixable bool   `json:"fixable,omitempty"`
}

// Fact is an observed value a check reports alongside its items, such as the
// state of the history backend or the number of stored entries.
type Fact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Result is the outcome of one check.
type Result struct {
	Name  string      `json:"name"`
	Facts []Fact      `json:"facts,omitempty"`
	Items []CheckItem `json:"items"`
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// Report collects every result with item counts.
type Report struct {
	Results []Result `json:"checks"`
	Passed  int      `json:"passed"`
	Warned  int      `json:"warned"`
	Failed  int      `json:"failed"`
	Fixable int      `json:"fixable"`
}

// Healthy reports whether no item failed.
func (r Report) Healthy() bool {
	return r.Failed == 0
}

// Run executes checks in order.
func Run(ctx context.Context, checks ...Check) Report {
	var report Report
	for _, check := range checks {
		result := check.Run(ctx)

		for _, item := range result.Items {
			switch item.Status {
			case StatusPass:
				report.Passed++
			case StatusWarn:
				report.Warned++
			case StatusFail:
				report.Failed++
			}
			if item.Fixable && item.Status != StatusPass {
				report.Fixable++
			}
		}

		report.Results = append(report.Results, result)
	}
	return report
}

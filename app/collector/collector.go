package collector

import (
	"context"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
)

// Window bounds which items a run considers recent enough to ingest.
type Window struct {
	Since time.Time
	Until time.Time
}

func NewWindow(now time.Time, daysAgo int) Window {
	now = now.UTC()
	return Window{
		Since: now.AddDate(0, 0, -daysAgo),
		Until: now,
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since)
}

type Request struct {
	Window Window
	Limit  int
}

// Collector fetches raw items from one external source. Implementations
// never return errors directly; failures are reported through Result.
type Collector interface {
	Source() content.Source
	Enabled() bool
	Collect(ctx context.Context, req Request) Result
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusEmpty    Status = "empty"
	StatusDisabled Status = "disabled"
	StatusFailed   Status = "failed"
)

type Result struct {
	Source    content.Source
	Status    Status
	Items     []content.RawItem
	Simulated bool
	Err       error
}

func OK(source content.Source, items []content.RawItem) Result {
	if len(items) == 0 {
		return Empty(source)
	}
	return Result{Source: source, Status: StatusOK, Items: items}
}

func Simulated(source content.Source, items []content.RawItem) Result {
	r := OK(source, items)
	r.Simulated = true
	return r
}

func Empty(source content.Source) Result {
	return Result{Source: source, Status: StatusEmpty}
}

func Disabled(source content.Source) Result {
	return Result{Source: source, Status: StatusDisabled}
}

func Failed(source content.Source, err error) Result {
	return Result{Source: source, Status: StatusFailed, Err: err}
}

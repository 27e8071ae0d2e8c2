package search

import (
	"sync"
	"time"

	"quetzal/model"
)

// Source is the catalog as seen by a live view.
type Source interface {
	All() []model.Paper
	Subscribe(fn func()) (unsubscribe func())
}

// View keeps one query and filter selection applied to a Source. Every catalog
// change or selection change schedules a debounced re-run; each run's result
// is handed to onResult.
type View struct {
	src      Source
	debounce *Debouncer
	onResult func([]model.Paper)

	mu          sync.Mutex
	query       string
	filters     Filters
	results     []model.Paper
	closed      bool
	unsubscribe func()
}

func NewView(src Source, delay time.Duration, query string, filters Filters, onResult func([]model.Paper)) *View {
	v := &View{
		src:      src,
		debounce: NewDebouncer(delay),
		onResult: onResult,
		query:    query,
		filters:  filters.Normalize(),
	}
	v.unsubscribe = src.Subscribe(v.schedule)
	v.schedule()
	return v
}

func (v *View) SetQuery(query string) {
	v.mu.Lock()
	v.query = query
	v.mu.Unlock()
	v.schedule()
}

func (v *View) SetFilters(filters Filters) {
	v.mu.Lock()
	v.filters = filters.Normalize()
	v.mu.Unlock()
	v.schedule()
}

func (v *View) Toggle(key string) (Filters, error) {
	v.mu.Lock()
	next, err := Toggle(v.filters, key)
	if err != nil {
		v.mu.Unlock()
		return v.filters, err
	}
	v.filters = next
	v.mu.Unlock()
	v.schedule()
	return next, nil
}

func (v *View) Filters() Filters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters
}

// Results returns the outcome of the last completed run.
func (v *View) Results() []model.Paper {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.Paper, len(v.results))
	copy(out, v.results)
	return out
}

func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribe
	v.mu.Unlock()

	unsubscribe()
	v.debounce.Stop()
}

func (v *View) schedule() {
	v.debounce.Trigger(v.run)
}

func (v *View) run() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	query, filters := v.query, v.filters
	v.mu.Unlock()

	results := Match(v.src.All(), query, filters)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.results = results
	v.mu.Unlock()

	if v.onResult != nil {
		v.onResult(results)
	}
}

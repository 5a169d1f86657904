// Package search turns raw keystrokes into debounced catalog lookups.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

// Search outcome labels reported to the recorder.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusEmpty = "empty"
)

// Results is the result list for one debounced query.
type Results struct {
	Query  string
	Tracks []core.Track
}

// NoMatches reports a finished non-blank query that found nothing.
func (r Results) NoMatches() bool {
	return strings.TrimSpace(r.Query) != "" && len(r.Tracks) == 0
}

// Pipeline owns the raw query, the debounced query and the in-flight lookup.
// At most one debounce timer is pending; a lookup result is applied only if no
// newer lookup started after it.
type Pipeline struct {
	mutex sync.Mutex

	catalog core.Catalog
	delay   time.Duration

	raw       string
	debounced string
	results   Results

	timer      *time.Timer
	timerGen   uint64
	requestGen uint64
	cancel     context.CancelFunc
	closed     bool

	onResults func(Results)
	recorder  core.Recorder
	logger    *zap.Logger
}

func NewPipeline(catalog core.Catalog, delay time.Duration, recorder core.Recorder, logger *zap.Logger) *Pipeline {
	if delay <= 0 {
		delay = core.DefaultDebounceDelay
	}
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	return &Pipeline{
		catalog:  catalog,
		delay:    delay,
		recorder: recorder,
		logger:   logger.Named("search"),
	}
}

// SetResultsHandler registers the observer called whenever the result list changes.
func (p *Pipeline) SetResultsHandler(handler func(Results)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onResults = handler
}

// Input records a keystroke and restarts the debounce window.
func (p *Pipeline) Input(raw string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return
	}

	p.raw = raw
	p.stopTimerLocked()

	generation := p.timerGen
	p.timer = time.AfterFunc(p.delay, func() {
		p.fire(generation)
	})
}

// Clear synchronously resets both queries and the result list, dropping any
// pending timer and in-flight lookup.
func (p *Pipeline) Clear() {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return
	}

	p.raw = ""
	p.debounced = ""
	p.stopTimerLocked()
	p.cancelRequestLocked()
	p.results = Results{}
	snapshot, handler := p.results, p.onResults
	p.mutex.Unlock()

	if handler != nil {
		handler(snapshot)
	}
}

// Close stops the timer and aborts the in-flight lookup.
func (p *Pipeline) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.closed = true
	p.stopTimerLocked()
	p.cancelRequestLocked()
}

func (p *Pipeline) Query() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.raw
}

func (p *Pipeline) DebouncedQuery() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.debounced
}

func (p *Pipeline) Results() Results {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return Results{
		Query:  p.results.Query,
		Tracks: append([]core.Track(nil), p.results.Tracks...),
	}
}

// Searching reports whether a lookup is in flight.
func (p *Pipeline) Searching() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cancel != nil
}

func (p *Pipeline) fire(generation uint64) {
	p.mutex.Lock()
	if p.closed || generation != p.timerGen {
		p.mutex.Unlock()
		return
	}

	p.timer = nil
	p.debounced = p.raw
	p.cancelRequestLocked()

	query := strings.TrimSpace(p.debounced)
	if query == "" {
		p.results = Results{Query: p.debounced}
		snapshot, handler := p.results, p.onResults
		p.mutex.Unlock()

		p.recorder.RecordSearch(StatusEmpty)
		if handler != nil {
			handler(snapshot)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	requestGen := p.requestGen
	debounced := p.debounced
	p.mutex.Unlock()

	p.logger.Debug("Searching catalog",
		zap.String("query", query),
		zap.Uint64("request", requestGen))

	tracks, err := p.catalog.SearchCatalog(ctx, query)
	p.apply(ctx, cancel, requestGen, debounced, tracks, err)
}

func (p *Pipeline) apply(
	ctx context.Context, cancel context.CancelFunc, requestGen uint64, query string, tracks []core.Track, err error,
) {
	defer cancel()

	p.mutex.Lock()
	if requestGen != p.requestGen || ctx.Err() != nil {
		p.mutex.Unlock()
		p.recorder.RecordSearchDiscarded()
		p.logger.Debug("Discarding superseded search result",
			zap.String("query", query),
			zap.Uint64("request", requestGen))
		return
	}

	p.cancel = nil
	status := StatusOK
	if err != nil {
		status = StatusError
		tracks = nil
	}
	if len(tracks) > core.MaxDisplayedResults {
		tracks = tracks[:core.MaxDisplayedResults]
	}
	p.results = Results{Query: query, Tracks: append([]core.Track(nil), tracks...)}
	snapshot, handler := p.results, p.onResults
	p.mutex.Unlock()

	if err != nil {
		p.logger.Warn("Catalog search failed",
			zap.String("query", query),
			zap.Error(err))
	}
	p.recorder.RecordSearch(status)

	if handler != nil {
		handler(snapshot)
	}
}

func (p *Pipeline) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.timerGen++
}

func (p *Pipeline) cancelRequestLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.requestGen++
}

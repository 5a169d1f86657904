// Package palette derives a background/text color pair from track artwork.
package palette

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

// Extraction outcome labels reported to the recorder.
const (
	StatusOK       = "ok"
	StatusFallback = "fallback"
	StatusAborted  = "aborted"
)

// Extractor runs at most one live extraction session. Showing new artwork
// aborts the previous session; an aborted session never commits.
type Extractor struct {
	mutex      sync.Mutex
	loader     core.ImageLoader
	timeout    time.Duration
	generation uint64
	cancel     context.CancelFunc
	current    core.Palette
	closed     bool

	onChange func(core.Palette)
	recorder core.Recorder
	logger   *zap.Logger
}

func NewExtractor(loader core.ImageLoader, timeout time.Duration, recorder core.Recorder, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = core.DefaultImageFetchTimeout
	}
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	return &Extractor{
		loader:   loader,
		timeout:  timeout,
		current:  Fallback(),
		recorder: recorder,
		logger:   logger.Named("palette"),
	}
}

// SetPaletteHandler registers the observer called after every committed palette.
func (e *Extractor) SetPaletteHandler(handler func(core.Palette)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.onChange = handler
}

// Show starts extracting the palette of the artwork at url.
func (e *Extractor) Show(url string) {
	e.mutex.Lock()
	if e.closed {
		e.mutex.Unlock()
		return
	}

	e.abortLocked()
	e.generation++
	generation := e.generation

	if url == "" {
		e.current = Fallback()
		snapshot, handler := e.current, e.onChange
		e.mutex.Unlock()

		e.recorder.RecordColorExtraction(StatusFallback)
		if handler != nil {
			handler(snapshot)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	e.cancel = cancel
	e.mutex.Unlock()

	go e.extract(ctx, cancel, generation, url)
}

func (e *Extractor) Current() core.Palette {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.current
}

// Close aborts the running session.
func (e *Extractor) Close() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.closed = true
	e.abortLocked()
}

func (e *Extractor) extract(ctx context.Context, cancel context.CancelFunc, generation uint64, url string) {
	defer cancel()

	palette, err := e.sample(ctx, url)

	e.mutex.Lock()
	if generation != e.generation || errors.Is(ctx.Err(), context.Canceled) {
		e.mutex.Unlock()
		e.recorder.RecordColorExtraction(StatusAborted)
		e.logger.Debug("Discarding aborted color extraction",
			zap.String("url", url),
			zap.Uint64("generation", generation))
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusFallback
		palette = Fallback()
	}
	e.current = palette
	e.cancel = nil
	snapshot, handler := e.current, e.onChange
	e.mutex.Unlock()

	if err != nil {
		e.logger.Warn("Color extraction failed, using fallback palette",
			zap.String("url", url),
			zap.Error(err))
	}
	e.recorder.RecordColorExtraction(status)

	if handler != nil {
		handler(snapshot)
	}
}

func (e *Extractor) sample(ctx context.Context, url string) (core.Palette, error) {
	img, err := e.loader.Load(ctx, url)
	if err != nil {
		return core.Palette{}, err
	}

	dominant, err := Dominant(ctx, img)
	if err != nil {
		return core.Palette{}, err
	}

	return FromColor(dominant), nil
}

func (e *Extractor) abortLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

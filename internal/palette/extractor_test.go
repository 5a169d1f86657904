package palette

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	gates  map[string]chan struct{}
	calls  []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		images: make(map[string]image.Image),
		gates:  make(map[string]chan struct{}),
	}
}

func (f *fakeLoader) Load(ctx context.Context, url string) (image.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	img := f.images[url]
	gate := f.gates[url]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if img == nil {
		return nil, errors.New("not found")
	}
	return img, nil
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type paletteLog struct {
	mu       sync.Mutex
	palettes []core.Palette
}

func (l *paletteLog) handle(p core.Palette) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.palettes = append(l.palettes, p)
}

func (l *paletteLog) all() []core.Palette {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Palette(nil), l.palettes...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestExtractor_CommitsExtractedPalette(t *testing.T) {
	loader := newFakeLoader()
	loader.images["white"] = solidImage(8, 8, color.White)
	e := NewExtractor(loader, time.Second, nil, zap.NewNop())
	defer e.Close()
	log := &paletteLog{}
	e.SetPaletteHandler(log.handle)

	e.Show("white")
	waitFor(t, func() bool { return len(log.all()) == 1 })

	got := e.Current()
	if got.Background != "#ffffff" || got.Foreground != DarkText || got.Dark {
		t.Errorf("Current() = %+v", got)
	}
}

func TestExtractor_EmptyURLAppliesFallback(t *testing.T) {
	loader := newFakeLoader()
	e := NewExtractor(loader, time.Second, nil, zap.NewNop())
	defer e.Close()
	log := &paletteLog{}
	e.SetPaletteHandler(log.handle)

	e.Show("")

	if got := e.Current(); got != Fallback() {
		t.Errorf("Current() = %+v, want fallback", got)
	}
	if len(log.all()) != 1 {
		t.Errorf("handler calls = %d, want 1", len(log.all()))
	}
	if loader.callCount() != 0 {
		t.Error("empty URL should not load anything")
	}
}

func TestExtractor_LoadFailureFallsBack(t *testing.T) {
	loader := newFakeLoader()
	e := NewExtractor(loader, time.Second, nil, zap.NewNop())
	defer e.Close()
	log := &paletteLog{}
	e.SetPaletteHandler(log.handle)

	e.Show("missing")
	waitFor(t, func() bool { return len(log.all()) == 1 })

	if got := e.Current(); got != Fallback() {
		t.Errorf("Current() = %+v, want fallback", got)
	}
}

func TestExtractor_AbortedSessionNeverCommits(t *testing.T) {
	loader := newFakeLoader()
	slow := make(chan struct{})
	loader.gates["black"] = slow
	loader.images["black"] = solidImage(8, 8, color.Black)
	loader.images["white"] = solidImage(8, 8, color.White)
	e := NewExtractor(loader, time.Second, nil, zap.NewNop())
	defer e.Close()
	log := &paletteLog{}
	e.SetPaletteHandler(log.handle)

	e.Show("black")
	waitFor(t, func() bool { return loader.callCount() == 1 })
	e.Show("white")
	waitFor(t, func() bool { return len(log.all()) == 1 })

	close(slow)
	time.Sleep(50 * time.Millisecond)

	palettes := log.all()
	if len(palettes) != 1 || palettes[0].Background != "#ffffff" {
		t.Errorf("palettes = %+v, want only white", palettes)
	}
	if e.Current().Background != "#ffffff" {
		t.Errorf("Current() = %+v", e.Current())
	}
}

func TestExtractor_CloseAbortsSession(t *testing.T) {
	loader := newFakeLoader()
	loader.gates["slow"] = make(chan struct{})
	loader.images["slow"] = solidImage(8, 8, color.White)
	e := NewExtractor(loader, time.Second, nil, zap.NewNop())
	log := &paletteLog{}
	e.SetPaletteHandler(log.handle)

	e.Show("slow")
	waitFor(t, func() bool { return loader.callCount() == 1 })
	e.Close()
	time.Sleep(50 * time.Millisecond)

	if len(log.all()) != 0 {
		t.Errorf("closed extractor committed %+v", log.all())
	}
	if e.Current() != Fallback() {
		t.Errorf("Current() = %+v, want initial fallback", e.Current())
	}
}

func TestHTTPImageLoader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(4, 4, color.White)); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		case "/garbage":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewHTTPImageLoader(server.Client())

	img, err := loader.Load(context.Background(), server.URL+"/cover.png")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("decoded width = %d, want 4", img.Bounds().Dx())
	}

	if _, err := loader.Load(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := loader.Load(context.Background(), server.URL+"/garbage"); err == nil {
		t.Error("expected decode error")
	}
}

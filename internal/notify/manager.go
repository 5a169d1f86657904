// Package notify manages the single transient notification slot.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

// Manager holds at most one visible notification. Every Show replaces the
// current one and restarts the expiry; only the expiry of the most recent
// Show may hide it.
type Manager struct {
	mutex      sync.Mutex
	current    core.Notification
	generation uint64
	cancel     context.CancelFunc
	expiry     time.Duration
	closed     bool

	onChange func(core.Notification)
	recorder core.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(expiry time.Duration, recorder core.Recorder, logger *zap.Logger) *Manager {
	if expiry <= 0 {
		expiry = core.DefaultNotificationExpiry
	}
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	return &Manager{
		expiry:   expiry,
		recorder: recorder,
		logger:   logger.Named("notify"),
		now:      time.Now,
	}
}

// SetHandler registers the observer called after every visible change.
func (m *Manager) SetHandler(handler func(core.Notification)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onChange = handler
}

func (m *Manager) Show(kind core.NotificationKind, message string) {
	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return
	}

	if m.cancel != nil {
		m.cancel()
	}

	m.generation++
	generation := m.generation
	m.current = core.Notification{
		Message:   message,
		Kind:      kind,
		Visible:   true,
		CreatedAt: m.now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.expiry)
	m.cancel = cancel
	snapshot, handler := m.current, m.onChange
	m.mutex.Unlock()

	m.recorder.RecordNotification(string(kind))
	m.logger.Debug("Notification shown",
		zap.String("kind", string(kind)),
		zap.String("message", message),
		zap.Uint64("generation", generation))

	go m.expireAfter(ctx, generation)

	if handler != nil {
		handler(snapshot)
	}
}

// Dismiss hides the current notification and stops its expiry.
func (m *Manager) Dismiss() {
	m.mutex.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if !m.current.Visible {
		m.mutex.Unlock()
		return
	}
	m.generation++
	m.current.Visible = false
	snapshot, handler := m.current, m.onChange
	m.mutex.Unlock()

	if handler != nil {
		handler(snapshot)
	}
}

func (m *Manager) Current() core.Notification {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

// Close stops the pending expiry. Later calls to Show are ignored.
func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Manager) expireAfter(ctx context.Context, generation uint64) {
	<-ctx.Done()

	// Canceled means a newer Show, a Dismiss or Close took over.
	if ctx.Err() != context.DeadlineExceeded {
		return
	}

	m.mutex.Lock()
	if generation != m.generation || !m.current.Visible {
		m.mutex.Unlock()
		return
	}
	m.current.Visible = false
	m.cancel = nil
	snapshot, handler := m.current, m.onChange
	m.mutex.Unlock()

	m.logger.Debug("Notification expired", zap.Uint64("generation", generation))

	if handler != nil {
		handler(snapshot)
	}
}

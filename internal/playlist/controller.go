// Package playlist owns the shared playlist state: the submission form, the
// optimistic add flow with server reconciliation, and the paginated view.
package playlist

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tunedrop/internal/core"
	"tunedrop/internal/messages"
)

// localIDPrefix marks entries that exist only on this client.
const localIDPrefix = "local-"

// AttemptState is the position of the current submission in the add flow.
type AttemptState int

const (
	// StateIdle means no submission has started yet.
	StateIdle AttemptState = iota
	StateValidating
	// StateOptimisticallyApplied means the entry was appended locally.
	StateOptimisticallyApplied
	// StatePersisting means the remote write is in flight.
	StatePersisting
	StateReconciled
	StateFailed
	StateDuplicate
	StateThrottled
)

var attemptStateNames = map[AttemptState]string{
	StateIdle:                  "idle",
	StateValidating:            "validating",
	StateOptimisticallyApplied: "optimistically_applied",
	StatePersisting:            "persisting",
	StateReconciled:            "reconciled",
	StateFailed:                "failed",
	StateDuplicate:             "duplicate",
	StateThrottled:             "throttled",
}

func (s AttemptState) String() string {
	if name, ok := attemptStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AttemptState(%d)", int(s))
}

// Outcome is the terminal result of a submission attempt.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeReconciled
	OutcomeFailed
	OutcomeDuplicate
	OutcomeThrottled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReconciled:
		return "reconciled"
	case OutcomeFailed:
		return "failed"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeThrottled:
		return "throttled"
	default:
		return "none"
	}
}

// Form is the nickname dialog for the selected track.
type Form struct {
	Track    *core.Track
	Nickname string
	Open     bool
}

// Controller is the single writer of the playlist entries and the form.
type Controller struct {
	mutex sync.Mutex

	entries []core.PlaylistEntry
	// version counts local mutations; a fetch that started before one is stale.
	version     uint64
	fetchGen    uint64
	committedAt uint64
	loading     bool

	form       Form
	state      AttemptState
	submitting bool
	// pending holds the IDs of optimistic entries whose remote add is in flight.
	pending map[string]struct{}

	store     core.PlaylistStore
	dedup     core.DedupStore
	profanity core.ProfanityChecker
	notifier  core.Notifier
	throttle  core.SubmissionThrottle
	messages  *messages.Catalog
	recorder  core.Recorder
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	onPlaylist func([]core.PlaylistEntry)
	onForm     func(Form)
}

func NewController(
	store core.PlaylistStore,
	dedup core.DedupStore,
	profanity core.ProfanityChecker,
	notifier core.Notifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		store:     store,
		dedup:     dedup,
		profanity: profanity,
		notifier:  notifier,
		messages:  messages.NewCatalog(),
		recorder:  core.NopRecorder{},
		pending:   make(map[string]struct{}),
		logger:    logger.Named("playlist"),
		now:       time.Now,
		newID:     func() string { return localIDPrefix + uuid.NewString() },
	}
}

// SetThrottle enables per-nickname submission limits.
func (c *Controller) SetThrottle(throttle core.SubmissionThrottle) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.throttle = throttle
}

func (c *Controller) SetRecorder(recorder core.Recorder) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if recorder == nil {
		recorder = core.NopRecorder{}
	}
	c.recorder = recorder
}

// SetPlaylistHandler registers the observer called after every change of the entries.
func (c *Controller) SetPlaylistHandler(handler func([]core.PlaylistEntry)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onPlaylist = handler
}

// SetFormHandler registers the observer called after every change of the form.
func (c *Controller) SetFormHandler(handler func(Form)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onForm = handler
}

// Select opens the form for track. It is ignored while a submission is persisting.
func (c *Controller) Select(track core.Track) {
	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		c.logger.Debug("Ignoring selection during submission", zap.String("trackID", track.ID))
		return
	}
	c.form = Form{Track: &track, Open: true}
	form, handler := c.formSnapshotLocked(), c.onForm
	c.mutex.Unlock()

	if handler != nil {
		handler(form)
	}
}

// ValidateNickname checks a nickname candidate without storing it.
func (c *Controller) ValidateNickname(candidate string) error {
	if utf8.RuneCountInString(candidate) > core.MaxNicknameLength {
		return core.ErrNicknameTooLong
	}
	if c.profanity != nil && c.profanity.IsProfane(candidate) {
		return core.ErrNicknameProfane
	}
	return nil
}

// SetNickname stores candidate as the form nickname. Candidates that are too
// long or profane are dropped and the stored nickname stays unchanged.
func (c *Controller) SetNickname(candidate string) bool {
	if err := c.ValidateNickname(candidate); err != nil {
		return false
	}

	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		return false
	}
	c.form.Nickname = candidate
	form, handler := c.formSnapshotLocked(), c.onForm
	c.mutex.Unlock()

	if handler != nil {
		handler(form)
	}
	return true
}

// CloseForm dismisses the form without submitting.
func (c *Controller) CloseForm() {
	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		return
	}
	c.form = Form{}
	form, handler := c.formSnapshotLocked(), c.onForm
	c.mutex.Unlock()

	if handler != nil {
		handler(form)
	}
}

// Submit runs one add attempt for the selected track. Remote failures are
// reported through the outcome and a notification, not as an error.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		return OutcomeNone, core.ErrSubmissionInProgress
	}
	if c.form.Track == nil {
		c.mutex.Unlock()
		return OutcomeNone, core.ErrNoTrackSelected
	}
	track := *c.form.Track
	nickname := c.form.Nickname
	c.submitting = true
	c.state = StateValidating
	c.mutex.Unlock()

	defer c.resetForm()

	outcome := c.submit(ctx, track, nickname)

	c.mutex.Lock()
	recorder := c.recorder
	c.mutex.Unlock()
	recorder.RecordAdd(outcome.String())

	return outcome, nil
}

func (c *Controller) submit(ctx context.Context, track core.Track, nickname string) Outcome {
	logger := c.logger.With(zap.String("trackID", track.ID), zap.String("nickname", nickname))

	c.mutex.Lock()
	if c.isDuplicateLocked(track.ID) {
		c.state = StateDuplicate
		c.mutex.Unlock()

		logger.Info("Track already in playlist")
		c.notify(core.NotificationInfo, c.messages.T(messages.AddDuplicate))
		return OutcomeDuplicate
	}

	if c.throttle != nil && !c.throttle.Allow(nickname) {
		c.state = StateThrottled
		c.mutex.Unlock()

		logger.Info("Submission throttled")
		c.notify(core.NotificationError, c.messages.T(messages.AddThrottled, c.displayNickname(nickname)))
		return OutcomeThrottled
	}

	entry := core.PlaylistEntry{
		ID:          c.newID(),
		Track:       track,
		Nicknames:   []string{nickname},
		Timestamp:   c.now(),
		Unconfirmed: true,
	}
	c.applyLocalLocked(append(c.entries, entry))
	c.dedup.Add(track.ID)
	c.pending[entry.ID] = struct{}{}
	c.state = StateOptimisticallyApplied
	c.mutex.Unlock()

	c.emitPlaylist()
	logger.Debug("Entry applied optimistically", zap.String("entryID", entry.ID))

	c.setState(StatePersisting)
	err := c.store.AddTrack(core.WithIdempotencyKey(ctx, entry.ID), track, nickname)

	c.mutex.Lock()
	delete(c.pending, entry.ID)
	c.mutex.Unlock()

	if err != nil {
		c.setState(StateFailed)
		logger.Error("Failed to add track, keeping unconfirmed entry", zap.Error(err))
		c.notify(core.NotificationError, c.messages.T(messages.AddFailed, track.Name))
		return OutcomeFailed
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		logger.Warn("Failed to reconcile playlist after add", zap.Error(refreshErr))
	}

	c.setState(StateReconciled)
	logger.Info("Track added to playlist")
	c.notify(core.NotificationSuccess, c.messages.T(messages.AddSuccess))
	return OutcomeReconciled
}

// Load fetches the authoritative playlist. A failed fetch keeps the last
// known entries.
func (c *Controller) Load(ctx context.Context) error {
	c.mutex.Lock()
	first := c.committedAt == 0
	if first {
		c.loading = true
	}
	c.mutex.Unlock()

	err := c.refresh(ctx)

	c.mutex.Lock()
	c.loading = false
	c.mutex.Unlock()

	if err != nil {
		c.logger.Error("Failed to load playlist", zap.Error(err))
		c.notify(core.NotificationError, c.messages.T(messages.LoadFailed))
		if first {
			c.emitPlaylist()
		}
		return err
	}
	return nil
}

// refresh replaces the entries with a fresh fetch unless a local mutation or
// a newer fetch got there first.
func (c *Controller) refresh(ctx context.Context) error {
	c.mutex.Lock()
	c.fetchGen++
	generation := c.fetchGen
	version := c.version
	c.mutex.Unlock()

	entries, err := c.store.FetchPlaylist(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	c.mutex.Lock()
	if version != c.version || generation < c.committedAt {
		c.mutex.Unlock()
		c.logger.Debug("Discarding stale playlist fetch",
			zap.Uint64("fetch", generation),
			zap.Uint64("version", version))
		return nil
	}
	c.entries = c.withPendingLocked(entries)
	c.committedAt = generation
	c.dedup.LoadEntries(c.entries)
	c.mutex.Unlock()

	c.emitPlaylist()
	return nil
}

// Entries returns a copy of the current entries in insertion order.
func (c *Controller) Entries() []core.PlaylistEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]core.PlaylistEntry(nil), c.entries...)
}

// Ready reports whether a fetch has completed at least once.
func (c *Controller) Ready() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.committedAt > 0
}

// Loading reports whether the first fetch is still outstanding.
func (c *Controller) Loading() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loading
}

func (c *Controller) Form() Form {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.formSnapshotLocked()
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.submitting
}

// State returns the state of the current or most recent attempt.
func (c *Controller) State() AttemptState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

func (c *Controller) resetForm() {
	c.mutex.Lock()
	c.form = Form{}
	c.submitting = false
	form, handler := c.formSnapshotLocked(), c.onForm
	c.mutex.Unlock()

	if handler != nil {
		handler(form)
	}
}

func (c *Controller) isDuplicateLocked(trackID string) bool {
	if c.dedup.Has(trackID) {
		return true
	}
	// The index forgets its oldest IDs once full; fall back to a scan.
	if c.dedup.Size() >= len(c.entries) {
		return false
	}
	for i := range c.entries {
		if c.entries[i].Track.ID == trackID {
			return true
		}
	}
	return false
}

func (c *Controller) applyLocalLocked(entries []core.PlaylistEntry) {
	c.entries = entries
	c.version++
}

func (c *Controller) setState(state AttemptState) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.state = state
}

func (c *Controller) emitPlaylist() {
	c.mutex.Lock()
	entries := append([]core.PlaylistEntry(nil), c.entries...)
	handler, recorder := c.onPlaylist, c.recorder
	c.mutex.Unlock()

	recorder.SetPlaylistSize(len(entries))
	if handler != nil {
		handler(entries)
	}
}

func (c *Controller) notify(kind core.NotificationKind, message string) {
	if c.notifier != nil {
		c.notifier.Show(kind, message)
	}
}

func (c *Controller) formSnapshotLocked() Form {
	form := c.form
	if form.Track != nil {
		track := *form.Track
		form.Track = &track
	}
	return form
}

// withPendingLocked keeps the optimistic entries of in-flight adds that the
// fetched snapshot does not contain yet.
func (c *Controller) withPendingLocked(fetched []core.PlaylistEntry) []core.PlaylistEntry {
	merged := append([]core.PlaylistEntry(nil), fetched...)
	if len(c.pending) == 0 {
		return merged
	}

	known := make(map[string]struct{}, len(fetched))
	for i := range fetched {
		known[fetched[i].Track.ID] = struct{}{}
	}
	for i := range c.entries {
		entry := c.entries[i]
		if _, inFlight := c.pending[entry.ID]; !inFlight {
			continue
		}
		if _, fetchedAlready := known[entry.Track.ID]; fetchedAlready {
			continue
		}
		merged = append(merged, entry)
	}
	return merged
}

func (c *Controller) displayNickname(nickname string) string {
	if nickname == "" {
		return c.messages.T(messages.Anonymous)
	}
	return nickname
}

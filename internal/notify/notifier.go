// internal/notify/notifier.go
package notify

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderkaro/orderkaro-backend/internal/logger"
)

// Kind classifies a notification. Each kind has its own debounce window and
// concurrency cap.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindLoading Kind = "loading"
	KindDefault Kind = "default"
)

// Per-kind debounce windows: an identical (message, kind) pair inside the
// window is suppressed.
var debounceWindows = map[Kind]time.Duration{
	KindSuccess: 1500 * time.Millisecond,
	KindError:   2500 * time.Millisecond,
	KindLoading: 3 * time.Second,
	KindDefault: 1500 * time.Millisecond,
}

// Per-kind caps on simultaneously active notifications. When exceeded, the
// oldest active one of that kind is force-dismissed first.
var activeCaps = map[Kind]int{
	KindSuccess: 3,
	KindError:   2,
	KindLoading: 1,
	KindDefault: 3,
}

// Errors without an explicit duration auto-dismiss after this long.
const defaultErrorDuration = 4 * time.Second

// Notification is one emitted message.
type Notification struct {
	ID      string
	Message string
	Kind    Kind
	ShownAt time.Time
}

// Sink receives emitted and dismissed notifications. The default sink logs
// them; a UI or webhook sink can be plugged in instead.
type Sink interface {
	Emit(n Notification)
	Dismiss(id string)
}

type logSink struct {
	log *logrus.Logger
}

func (s *logSink) Emit(n Notification) {
	switch n.Kind {
	case KindError:
		s.log.Warnf("Notify [%s] %s", n.ID, n.Message)
	default:
		s.log.Printf("Notify [%s] (%s) %s", n.ID, n.Kind, n.Message)
	}
}

func (s *logSink) Dismiss(id string) {
	s.log.Debugf("Notify [%s] dismissed", id)
}

// NewLogSink returns a Sink that writes notifications to the service log.
func NewLogSink() Sink {
	return &logSink{log: logger.NewLogger()}
}

type active struct {
	n     Notification
	timer *time.Timer
}

// Notifier de-duplicates and rate-limits notifications. Constructed once at
// startup and injected into whatever needs to surface messages.
type Notifier struct {
	mu     sync.Mutex
	sink   Sink
	now    func() time.Time
	nextID uint64

	// recently shown (message, kind) pairs for debounce
	recent map[string]time.Time
	// active notifications per kind, oldest first
	byKind map[Kind][]*active
}

// Option tunes a Notifier or a single Show call.
type ShowOption func(*showOptions)

type showOptions struct {
	duration    time.Duration
	hasDuration bool
}

// WithDuration auto-dismisses the notification after d.
func WithDuration(d time.Duration) ShowOption {
	return func(o *showOptions) {
		o.duration = d
		o.hasDuration = true
	}
}

// NewNotifier creates a Notifier emitting into sink. A nil sink falls back to
// the log sink.
func NewNotifier(sink Sink) *Notifier {
	if sink == nil {
		sink = NewLogSink()
	}
	return &Notifier{
		sink:   sink,
		now:    time.Now,
		recent: make(map[string]time.Time),
		byKind: make(map[Kind][]*active),
	}
}

func dedupeKey(message string, kind Kind) string {
	return string(kind) + "|" + message
}

// Show surfaces a notification unless an identical (message, kind) pair was
// shown within its debounce window. It returns the notification ID and whether
// it was actually emitted.
func (nf *Notifier) Show(message string, kind Kind, opts ...ShowOption) (string, bool) {
	if _, ok := debounceWindows[kind]; !ok {
		kind = KindDefault
	}

	var o showOptions
	for _, opt := range opts {
		opt(&o)
	}

	nf.mu.Lock()
	defer nf.mu.Unlock()

	now := nf.now()
	key := dedupeKey(message, kind)
	if last, ok := nf.recent[key]; ok && now.Sub(last) < debounceWindows[kind] {
		return "", false
	}
	nf.recent[key] = now
	nf.pruneRecentLocked(now)

	// Enforce the per-kind cap: force-dismiss the oldest before showing.
	for len(nf.byKind[kind]) >= activeCaps[kind] {
		nf.dismissLocked(nf.byKind[kind][0].n.ID)
	}

	id := strconv.FormatUint(atomic.AddUint64(&nf.nextID, 1), 10)
	n := Notification{ID: id, Message: message, Kind: kind, ShownAt: now}

	entry := &active{n: n}
	duration := o.duration
	if !o.hasDuration && kind == KindError {
		duration = defaultErrorDuration
	}
	if duration > 0 {
		entry.timer = time.AfterFunc(duration, func() { nf.Dismiss(id) })
	}

	nf.byKind[kind] = append(nf.byKind[kind], entry)
	nf.sink.Emit(n)
	return id, true
}

// Dismiss removes a single active notification by ID. Unknown IDs are a no-op.
func (nf *Notifier) Dismiss(id string) {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	nf.dismissLocked(id)
}

// DismissErrors clears all active error notifications.
func (nf *Notifier) DismissErrors() {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	for _, e := range nf.byKind[KindError] {
		nf.stopTimer(e)
		nf.sink.Dismiss(e.n.ID)
	}
	delete(nf.byKind, KindError)
}

// DismissAll clears all active notifications and debounce state.
func (nf *Notifier) DismissAll() {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	for _, entries := range nf.byKind {
		for _, e := range entries {
			nf.stopTimer(e)
			nf.sink.Dismiss(e.n.ID)
		}
	}
	nf.byKind = make(map[Kind][]*active)
	nf.recent = make(map[string]time.Time)
}

// ActiveCount reports how many notifications of a kind are currently shown.
func (nf *Notifier) ActiveCount(kind Kind) int {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	return len(nf.byKind[kind])
}

func (nf *Notifier) dismissLocked(id string) {
	for kind, entries := range nf.byKind {
		for i, e := range entries {
			if e.n.ID == id {
				nf.stopTimer(e)
				nf.byKind[kind] = append(entries[:i], entries[i+1:]...)
				nf.sink.Dismiss(id)
				return
			}
		}
	}
}

func (nf *Notifier) stopTimer(e *active) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// pruneRecentLocked drops debounce entries older than the widest window so the
// map doesn't grow with message cardinality.
func (nf *Notifier) pruneRecentLocked(now time.Time) {
	for key, shown := range nf.recent {
		if now.Sub(shown) > 3*time.Second {
			delete(nf.recent, key)
		}
	}
}

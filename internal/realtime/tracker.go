package realtime

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sync/internal/types"
)

// tracker holds the synchronization state of one resource: a tracked
// instrument or the live deployment. Trackers are owned by the event loop and
// are never touched from any other goroutine.
type tracker[T any] struct {
	kind types.ResourceKind
	key  string

	state   types.ResourceState
	display types.DisplayValue

	value optional.Option[T]
	// observedAt is the server observation time of the held value.
	observedAt time.Time
	// receivedAt is the local time the held value, or the mount, was seen.
	receivedAt time.Time
	source     types.UpdateSource
}

func newTracker[T any](kind types.ResourceKind, key string) *tracker[T] {
	return &tracker[T]{
		kind:       kind,
		key:        key,
		state:      types.ResourceUninitialized,
		display:    types.ShowPlaceholder(types.PlaceholderLoading),
		value:      optional.None[T](),
		observedAt: time.Time{},
		receivedAt: time.Time{},
		source:     types.SourceInitial,
	}
}

// mount moves the tracker to loading and starts its staleness clock.
func (t *tracker[T]) mount(now time.Time) {
	if t.state != types.ResourceUninitialized {
		return
	}

	t.state = types.ResourceLoading
	t.display = types.ShowPlaceholder(types.PlaceholderLoading)
	t.receivedAt = now
}

// accept applies an update observed at observedAt unless it is older than the
// held value. Equal timestamps are accepted, except while an error placeholder
// covers a held value: only a strictly newer observation replaces "Error" or
// "Connection Lost", so a re-delivered snapshot never brings the old value back.
func (t *tracker[T]) accept(value T, observedAt, now time.Time, source types.UpdateSource, text string) bool {
	if t.value.IsSome() {
		if observedAt.Before(t.observedAt) {
			return false
		}

		if t.state == types.ResourceError && !observedAt.After(t.observedAt) {
			return false
		}
	}

	t.value = optional.Some(value)
	t.observedAt = observedAt
	t.receivedAt = now
	t.source = source
	t.state = types.ResourceLive
	t.display = types.Value(text)

	return true
}

// fetchFailed records a failed fetch. Only a tracker that has never held a
// value changes: it leaves the loading spinner for "Not Connected".
func (t *tracker[T]) fetchFailed() bool {
	if t.value.IsSome() || t.state != types.ResourceLoading {
		return false
	}

	t.state = types.ResourceError
	t.display = types.ShowPlaceholder(types.PlaceholderNotConnected)

	return true
}

// serverError replaces the display with the error placeholder.
func (t *tracker[T]) serverError() bool {
	return t.fail(types.PlaceholderError)
}

// connectionLost replaces the display with the connection lost placeholder.
func (t *tracker[T]) connectionLost() bool {
	return t.fail(types.PlaceholderConnectionLost)
}

func (t *tracker[T]) fail(p types.Placeholder) bool {
	if t.state == types.ResourceUninitialized {
		return false
	}

	if t.state == types.ResourceError && t.display.Is(p) {
		return false
	}

	t.state = types.ResourceError
	t.display = types.ShowPlaceholder(p)

	return true
}

// deadline is the time the tracker turns stale without further updates. A
// loading tracker gives up after loadingAfter, one holding a value after liveAfter.
func (t *tracker[T]) deadline(loadingAfter, liveAfter time.Duration) time.Time {
	if t.state == types.ResourceLoading {
		return t.receivedAt.Add(loadingAfter)
	}

	return t.receivedAt.Add(liveAfter)
}

// stale reports whether the tracker passed its deadline and applies the
// watchdog transition: loading gives up with "Not Connected", live becomes
// degraded with its value still shown.
func (t *tracker[T]) stale(now time.Time, loadingAfter, liveAfter time.Duration) (stale, changed bool) {
	if t.state == types.ResourceUninitialized || now.Before(t.deadline(loadingAfter, liveAfter)) {
		return false, false
	}

	switch t.state {
	case types.ResourceLoading:
		t.state = types.ResourceError
		t.display = types.ShowPlaceholder(types.PlaceholderNotConnected)

		return true, true
	case types.ResourceLive:
		t.state = types.ResourceDegraded

		return true, true
	default:
		return true, false
	}
}

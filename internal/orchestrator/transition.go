package orchestrator

// State is the lifecycle of a feed view's fetch loop.
type State int

const (
	Idle State = iota
	Loading
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is an external trigger delivered to the orchestrator: the feed
// view mounted, the user crossed the scroll threshold, or the user asked
// for a manual refresh.
type Event int

const (
	EventInit Event = iota
	EventScroll
	EventRefresh
)

func (e Event) String() string {
	switch e {
	case EventInit:
		return "init"
	case EventScroll:
		return "scroll"
	case EventRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Snapshot is the decision-relevant view of the world at trigger time.
type Snapshot struct {
	State   State
	Fresh   bool // cache is warm for the currently desired query
	HasMore bool
	Cursor  int
}

// FetchPlan describes the single network call a decision requires.
type FetchPlan struct {
	Page         int
	ForceRefresh bool
	Invalidate   bool // clear the cache before issuing (manual refresh)
}

// Decision is the outcome of feeding one event through Transition: the
// next state and, when Fetch is non-nil, the request to issue.
type Decision struct {
	Next  State
	Fetch *FetchPlan
}

// Transition is the pure state machine at the heart of the orchestrator.
// Competing triggers that arrive while a fetch is in flight are dropped,
// never queued, which is what keeps at most one request in flight and
// prevents page-ordering skew from rapid duplicate scroll events.
func Transition(s Snapshot, e Event) Decision {
	switch e {
	case EventInit:
		if s.State != Idle {
			return Decision{Next: s.State}
		}
		if s.Fresh {
			// Render the cache as-is, no network call.
			return Decision{Next: Idle}
		}
		return Decision{Next: Loading, Fetch: &FetchPlan{Page: 1, ForceRefresh: true}}

	case EventScroll:
		if s.State != Idle || !s.HasMore {
			// Dropped: already loading, in error (only refresh recovers),
			// or the feed is exhausted.
			return Decision{Next: s.State}
		}
		return Decision{Next: Loading, Fetch: &FetchPlan{Page: s.Cursor + 1}}

	case EventRefresh:
		if s.State == Loading {
			return Decision{Next: Loading}
		}
		// Always bypasses freshness and starts over, including from Error.
		return Decision{Next: Loading, Fetch: &FetchPlan{Page: 1, ForceRefresh: true, Invalidate: true}}
	}
	return Decision{Next: s.State}
}

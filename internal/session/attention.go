package session

// AttentionState says whether the operator is pinned to the live tail of the
// conversation or reading history.
type AttentionState string

const (
	Following AttentionState = "FOLLOWING"
	Browsing  AttentionState = "BROWSING"
)

// followThreshold is the px-equivalent distance from the bottom of the list
// beyond which a manual scroll counts as browsing.
const followThreshold = 100

// Attention is a deliberately simple two-state machine deciding between
// auto-scroll and an unread indicator. It consumes the merged message list
// and produces nothing other components depend on.
type Attention struct {
	state  AttentionState
	unread int
}

// NewAttention starts in FOLLOWING, matching initial load.
func NewAttention() *Attention {
	return &Attention{state: Following}
}

// State returns the current attention state.
func (a *Attention) State() AttentionState {
	return a.state
}

// Unread returns how many messages arrived while browsing.
func (a *Attention) Unread() int {
	return a.unread
}

// ReportScroll records the viewport's distance from the bottom of the list.
// Crossing the threshold switches to BROWSING; coming back within it resumes
// following and clears the unread count.
func (a *Attention) ReportScroll(distanceFromBottom float64) {
	if distanceFromBottom > followThreshold {
		a.state = Browsing
		return
	}
	a.state = Following
	a.unread = 0
}

// JumpToLatest is the explicit return to the live tail.
func (a *Attention) JumpToLatest() {
	a.state = Following
	a.unread = 0
}

// Reset re-enters FOLLOWING, used when a new conversation loads.
func (a *Attention) Reset() {
	a.state = Following
	a.unread = 0
}

// OnNewMessage reacts to an arrival in the merged list: while following the
// viewport tracks the tail, while browsing it stays put and the indicator
// counts up.
func (a *Attention) OnNewMessage() {
	if a.state == Browsing {
		a.unread++
	}
}

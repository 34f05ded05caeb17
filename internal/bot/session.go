package bot

import (
	"sync"

	"safarbot/internal/domain"
)

// flowStep is the backer-side conversation state. The requester-side
// wizard keeps its own state in the intake service; this only tracks
// browsing and the pledge-amount prompt.
type flowStep int

const (
	flowNone flowStep = iota
	flowPickRequester
	flowPledgeAmount
)

type flow struct {
	step     flowStep
	selected int64              // requester being pledged to
	filter   domain.Destination // "" = all
	page     int
}

// flows is an in-process per-party conversation store, like the wizard
// sessions: state is disposable and lost on restart, and every step is
// re-enterable from the menu.
type flows struct {
	mu sync.Mutex
	m  map[int64]*flow
}

func newFlows() *flows {
	return &flows{m: make(map[int64]*flow)}
}

func (f *flows) get(partyID int64) *flow {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.m[partyID]
	if !ok {
		fl = &flow{}
		f.m[partyID] = fl
	}
	return fl
}

func (f *flows) clear(partyID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, partyID)
}

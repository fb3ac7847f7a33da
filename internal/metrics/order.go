package metrics

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

// OrderStore persists a user's custom metric order under an opaque key.
type OrderStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Put(ctx context.Context, key string, order []string) error
}

// DefaultOrderDebounce is how long after the last drag the order is written.
const DefaultOrderDebounce = 500 * time.Millisecond

type orderPhase int

const (
	orderUnloaded orderPhase = iota
	orderLoadedEmpty
	orderLoadedCustom
)

// OrderState reconciles a persisted custom metric order with the freshest
// metric list.
//
// It moves Unloaded → Loaded-Empty or Loaded-Custom when the saved order
// arrives, and never back: a failed or empty read means natural order, not an
// error. A completed drag jumps straight to Loaded-Custom, suppresses exactly
// one following reconciliation pass so it cannot clobber the just-dropped
// order, and schedules a debounced write where each new drag cancels the
// previous pending one. Name matching is case-insensitive; display names
// always come from the current metric list. Safe for concurrent use.
type OrderState struct {
	mu       sync.Mutex
	store    OrderStore
	key      string
	debounce time.Duration

	phase    orderPhase
	saved    []string
	source   []string
	display  []string
	suppress bool
	timer    *time.Timer

	afterFunc func(time.Duration, func()) *time.Timer
}

// NewOrderState builds the machine for one user and context key. An empty
// key means nothing is persisted and the machine starts loaded. A
// non-positive debounce gets the default.
func NewOrderState(store OrderStore, key string, debounce time.Duration) *OrderState {
	if debounce <= 0 {
		debounce = DefaultOrderDebounce
	}
	s := &OrderState{
		store:     store,
		key:       key,
		debounce:  debounce,
		afterFunc: time.AfterFunc,
	}
	if key == "" || store == nil {
		s.phase = orderLoadedEmpty
	}
	return s
}

// Load fetches the saved order. Absent, empty, or failed reads settle on
// natural order. A load arriving after a drag already set a custom order is
// discarded, and a metric list that arrived while still unloaded is
// reconciled now rather than dropped.
func (s *OrderState) Load(ctx context.Context) {
	s.mu.Lock()
	if s.phase != orderUnloaded {
		s.mu.Unlock()
		return
	}
	store, key := s.store, s.key
	s.mu.Unlock()

	saved, err := store.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Debug("metric order load failed, using natural order", "key", key, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != orderUnloaded {
		return
	}
	if err != nil || len(saved) == 0 {
		s.phase = orderLoadedEmpty
		s.display = append([]string(nil), s.source...)
		return
	}
	s.phase = orderLoadedCustom
	s.saved = append([]string(nil), saved...)
	s.display = reconcile(s.saved, s.source)
}

// SetMetrics replaces the freshest metric list and returns the display
// order. While unloaded the natural order stands and reconciliation is
// deferred to Load. One pass after a drag is suppressed so the optimistic
// order survives; after that, reconciliation resumes.
func (s *OrderState) SetMetrics(names []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = append([]string(nil), names...)

	switch {
	case s.suppress:
		s.suppress = false
	case s.phase == orderLoadedCustom:
		s.display = reconcile(s.saved, s.source)
	default:
		s.display = append([]string(nil), s.source...)
	}
	return append([]string(nil), s.display...)
}

// CompleteDrag applies a finished drag: the new order becomes both display
// and saved order immediately, the next reconciliation pass is suppressed,
// and the write is debounced with only the latest order ever persisted. A
// failed write is dropped; the local order stays the session's truth.
func (s *OrderState) CompleteDrag(order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = orderLoadedCustom
	s.saved = append([]string(nil), order...)
	s.display = append([]string(nil), order...)
	s.suppress = true

	if s.store == nil || s.key == "" {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	store, key := s.store, s.key
	persist := append([]string(nil), order...)
	s.timer = s.afterFunc(s.debounce, func() {
		// Best effort by contract.
		_ = store.Put(context.Background(), key, persist)
	})
}

// Order returns the current display order.
func (s *OrderState) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.display...)
}

// Loaded reports whether the saved order has settled, by fetch or by drag.
func (s *OrderState) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase != orderUnloaded
}

// Close cancels any pending write.
func (s *OrderState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// ---- Helpers ----

// reconcile orders source names by their saved position: saved names first in
// saved order, unknown names appended in their original relative order,
// vanished names ignored. Matching is case-insensitive and the result keeps
// the source's casing.
func reconcile(saved, source []string) []string {
	pos := make(map[string]int, len(saved))
	for i, name := range saved {
		key := strings.ToLower(name)
		if _, ok := pos[key]; !ok {
			pos[key] = i
		}
	}

	known := make([]string, 0, len(source))
	var rest []string
	for _, name := range source {
		if _, ok := pos[strings.ToLower(name)]; ok {
			known = append(known, name)
		} else {
			rest = append(rest, name)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return pos[strings.ToLower(known[i])] < pos[strings.ToLower(known[j])]
	})
	return append(known, rest...)
}

package analysis

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// history is the bounded run log. Entries are evicted oldest-inserted first.
type history struct {
	mu      sync.RWMutex
	limit   int
	records *orderedmap.OrderedMap[string, *Record]
}

func newHistory(limit int) *history {
	return &history{
		limit:   limit,
		records: orderedmap.New[string, *Record](),
	}
}

func (h *history) insert(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records.Set(r.ID, &r)
	h.evictLocked()
}

// finish moves a record to its terminal status. Records that were evicted or
// cleared while running are not resurrected.
func (h *history) finish(id string, update func(*Record)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.records.Get(id); ok {
		update(r)
	}
	h.evictLocked()
}

func (h *history) evictLocked() {
	for h.records.Len() > h.limit {
		oldest := h.records.Oldest()
		if oldest == nil {
			return
		}
		h.records.Delete(oldest.Key)
	}
}

func (h *history) get(id string) (Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.records.Get(id)
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (h *history) running() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var result []Record
	for pair := h.records.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Status == StatusRunning {
			result = append(result, *pair.Value)
		}
	}
	return result
}

func (h *history) statistics() Statistics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var (
		stats Statistics
		total int64
	)
	for pair := h.records.Oldest(); pair != nil; pair = pair.Next() {
		stats.Total++
		switch r := pair.Value; r.Status {
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
			total += r.Duration().Milliseconds()
		case StatusFailed:
			stats.Failed++
		}
	}
	if stats.Completed > 0 {
		stats.AverageDurationMS = float64(total) / float64(stats.Completed)
	}
	return stats
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = orderedmap.New[string, *Record]()
}

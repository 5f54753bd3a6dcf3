package home

import (
	"pfm/internal/cache"
	"pfm/internal/core"
)

// HistoryCache keeps the balance series of every period fetched since the
// last full load. Entries never expire; only Clear drops them. It is not
// safe for concurrent use on its own; the Controller guards it.
type HistoryCache struct {
	entries *cache.LRUCache[core.ChartPeriod, []core.BalanceDataPoint]
}

func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		entries: cache.NewLRUCache[core.ChartPeriod, []core.BalanceDataPoint](len(core.AllPeriods()), 0),
	}
}

// Get returns a copy of the cached series for p.
func (h *HistoryCache) Get(p core.ChartPeriod) ([]core.BalanceDataPoint, bool) {
	series, ok := h.entries.Get(p)
	if !ok {
		return nil, false
	}
	return append([]core.BalanceDataPoint(nil), series...), true
}

func (h *HistoryCache) Put(p core.ChartPeriod, series []core.BalanceDataPoint) {
	h.entries.Set(p, append([]core.BalanceDataPoint(nil), series...))
}

func (h *HistoryCache) Clear() {
	h.entries.Clear()
}

func (h *HistoryCache) Len() int {
	return h.entries.Size()
}

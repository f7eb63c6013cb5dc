package api

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
)

// =============================================================================
// RESULT CACHE - Aggregations keyed by a typed request key
// =============================================================================

// Exclusions removes units, work items, or work-item statuses from a
// request's snapshot before aggregation. Excluded activity types are left
// out of demand instead (see capacity.Options).
type Exclusions struct {
	Units      []string
	WorkItems  []string
	Statuses   []string
	Activities []string
}

// normalize sorts and de-duplicates each list so that equivalent requests
// share a cache entry.
func (x Exclusions) normalize() Exclusions {
	clean := func(ids []string) []string {
		out := lo.Uniq(lo.Compact(ids))
		sort.Strings(out)
		return out
	}
	return Exclusions{Units: clean(x.Units), WorkItems: clean(x.WorkItems), Statuses: clean(x.Statuses), Activities: clean(x.Activities)}
}

// IsEmpty reports whether the snapshot is left untouched. Activity
// exclusions do not change the snapshot.
func (x Exclusions) IsEmpty() bool {
	return len(x.Units) == 0 && len(x.WorkItems) == 0 && len(x.Statuses) == 0
}

// Options converts activity exclusions into engine options.
func (x Exclusions) Options() capacity.Options {
	excluded := lo.Map(x.Activities, func(a string, _ int) capacity.ActivityType { return capacity.ActivityType(a) })
	return capacity.Options{Activities: capacity.ExcludingActivities(excluded)}
}

// validate rejects activity names the engine does not know.
func (x Exclusions) validate() error {
	for _, a := range x.Activities {
		if !capacity.ActivityType(a).IsKnown() {
			return &generic.ValidationError{Kind: "exclude_activities", ID: a, Message: "unknown activity type", Err: generic.ErrUnknownActivity}
		}
	}
	return nil
}

// CacheKey identifies an aggregation request. It is comparable so it can key
// a map directly; exclusion lists are normalized and encoded by encodeIDs.
type CacheKey struct {
	Start             string
	End               string
	AsOf              string
	ExcludeUnits      string
	ExcludeWorkItems  string
	ExcludeStatuses   string
	ExcludeActivities string
}

// NewCacheKey builds a key from a resolved request.
func NewCacheKey(period generic.Period, asOf generic.TimePoint, excl Exclusions) CacheKey {
	n := excl.normalize()
	return CacheKey{
		Start:             period.Start.String(),
		End:               period.End.String(),
		AsOf:              asOf.String(),
		ExcludeUnits:      encodeIDs(n.Units),
		ExcludeWorkItems:  encodeIDs(n.WorkItems),
		ExcludeStatuses:   encodeIDs(n.Statuses),
		ExcludeActivities: encodeIDs(n.Activities),
	}
}

// encodeIDs length-prefixes every ID so that no ID content can collide with
// the boundary between two IDs.
func encodeIDs(ids []string) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.Itoa(len(id)))
		b.WriteByte(':')
		b.WriteString(id)
	}
	return b.String()
}

// ResultCache is a bounded FIFO cache of aggregation responses. Any write to
// the store invalidates it wholesale.
//
// Invalidate bumps a generation counter. Callers read Generation before
// fetching the snapshot and pass it to Put, which drops a result computed
// from data that has since been invalidated.
type ResultCache struct {
	mu      sync.Mutex
	max     int
	gen     uint64
	entries map[CacheKey]AggregateResponse
	order   []CacheKey
}

// NewResultCache returns a cache holding at most max entries. max <= 0
// disables caching.
func NewResultCache(max int) *ResultCache {
	return &ResultCache{max: max, entries: make(map[CacheKey]AggregateResponse)}
}

func (c *ResultCache) Get(key CacheKey) (AggregateResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[key]
	return resp, ok
}

// Generation identifies the cache contents between two invalidations.
func (c *ResultCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Put stores resp unless the cache was invalidated after gen was read.
// It reports whether the entry was stored.
func (c *ResultCache) Put(key CacheKey, gen uint64, resp AggregateResponse) bool {
	if c.max <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}

	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = resp
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return true
}

// Invalidate drops every entry.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[CacheKey]AggregateResponse)
	c.order = nil
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

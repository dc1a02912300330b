// Package quota enforces per app daily call limits in process.
//
// Counters are advanced with compare and swap so concurrent reservations for
// the same app can never push the count past its limit. ResetAll starts a new
// epoch; reservations taken before it are settled as no-ops.
//
// Each app also carries the usage epoch persisted next to its stored count.
// When storage reports a newer usage epoch than the one a record was seeded
// from, the counters were reset by another process and the stored count is
// adopted.
package quota

import (
	"sync"
	"sync/atomic"

	perr "phishguard/internal/platform/errors"
)

// Tracker holds one counter per app id
type Tracker struct {
	records sync.Map // int64 -> *record

	// mu orders reset against reservations; everything else is lock free
	mu    sync.RWMutex
	epoch uint64
}

type record struct {
	count atomic.Int64
	limit atomic.Int64

	// usage is the persisted usage epoch the count derives from
	usage atomic.Int64
	// gen moves on every adoption so older reservations settle as no-ops
	gen atomic.Uint64
}

// Reservation is capacity held by TryReserve until Commit or Release
type Reservation struct {
	AppID int64
	N     int64

	epoch   uint64
	gen     uint64
	settled atomic.Bool
}

// New returns an empty tracker
func New() *Tracker { return &Tracker{} }

// Observe seeds the record for appID on first sight. Later calls refresh the
// limit; the in process counter stays authoritative unless usageEpoch is newer
// than the one the record was seeded from, in which case countToday replaces it
func (t *Tracker) Observe(appID, limit, countToday, usageEpoch int64) {
	if countToday < 0 {
		countToday = 0
	}
	if v, ok := t.records.Load(appID); ok {
		t.refresh(v.(*record), limit, countToday, usageEpoch)
		return
	}
	rec := &record{}
	rec.limit.Store(limit)
	rec.count.Store(countToday)
	rec.usage.Store(usageEpoch)
	if v, loaded := t.records.LoadOrStore(appID, rec); loaded {
		t.refresh(v.(*record), limit, countToday, usageEpoch)
	}
}

func (t *Tracker) refresh(rec *record, limit, countToday, usageEpoch int64) {
	rec.limit.Store(limit)
	if usageEpoch <= rec.usage.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if usageEpoch <= rec.usage.Load() {
		return
	}
	rec.usage.Store(usageEpoch)
	rec.count.Store(countToday)
	rec.gen.Add(1)
}

// TryReserve takes n units for appID iff count+n stays within the limit.
// On failure the counter is untouched
func (t *Tracker) TryReserve(appID, n int64) (*Reservation, error) {
	if n <= 0 {
		return nil, perr.InvalidArgf("reservation size must be positive, got %d", n)
	}
	v, ok := t.records.Load(appID)
	if !ok {
		return nil, perr.NotFoundf("app %d has no quota record", appID)
	}
	rec := v.(*record)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for {
		cur := rec.count.Load()
		limit := rec.limit.Load()
		if cur+n > limit {
			return nil, perr.TooManyf("day limit of %d requests reached", limit)
		}
		if rec.count.CompareAndSwap(cur, cur+n) {
			return &Reservation{AppID: appID, N: n, epoch: t.epoch, gen: rec.gen.Load()}, nil
		}
	}
}

// Commit finalizes r and returns the count to persist for its app.
// A stale or already settled reservation changes nothing
func (t *Tracker) Commit(r *Reservation) int64 {
	if r == nil {
		return 0
	}
	v, ok := t.records.Load(r.AppID)
	if !ok {
		return 0
	}
	r.settled.Store(true)
	return v.(*record).count.Load()
}

// Release hands the capacity of r back. Only the first settle of a reservation
// taken since the last reset or adoption has an effect
func (t *Tracker) Release(r *Reservation) {
	if r == nil || !r.settled.CompareAndSwap(false, true) {
		return
	}
	v, ok := t.records.Load(r.AppID)
	if !ok {
		return
	}
	rec := v.(*record)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if r.epoch != t.epoch || r.gen != rec.gen.Load() {
		return
	}
	for {
		cur := rec.count.Load()
		next := max(cur-r.N, 0)
		if rec.count.CompareAndSwap(cur, next) {
			return
		}
	}
}

// ResetAll zeroes every counter and starts a new epoch
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
	t.records.Range(func(_, v any) bool {
		v.(*record).count.Store(0)
		return true
	})
}

// Epoch returns the number of resets so far
func (t *Tracker) Epoch() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch
}

// UsageEpoch is the persisted usage epoch the record for appID was last synced to
func (t *Tracker) UsageEpoch(appID int64) (int64, bool) {
	v, ok := t.records.Load(appID)
	if !ok {
		return 0, false
	}
	return v.(*record).usage.Load(), true
}

// Usage reports the current count and limit for appID
func (t *Tracker) Usage(appID int64) (count, limit int64, ok bool) {
	v, ok := t.records.Load(appID)
	if !ok {
		return 0, 0, false
	}
	rec := v.(*record)
	return rec.count.Load(), rec.limit.Load(), true
}

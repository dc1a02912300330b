package blacklist

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"phishguard/internal/platform/logger"
)

// FeedSource produces one fetch cycle of raw bodies
type FeedSource interface {
	Fetch(ctx context.Context) (Feeds, error)
}

// Store publishes the current snapshot. Reads are lock free, refreshes are serialized
type Store struct {
	cur   atomic.Pointer[Snapshot]
	gen   uint64
	mu    sync.Mutex
	src   FeedSource
	cache *Cache
	now   func() time.Time

	// sum of the feeds behind the current generation
	sum [sha256.Size]byte
}

// NewStore installs an empty generation 0 snapshot. cache may be nil
func NewStore(src FeedSource, cache *Cache) *Store {
	s := &Store{src: src, cache: cache, now: time.Now}
	s.cur.Store(empty())
	return s
}

// Current returns the published snapshot, never nil
func (s *Store) Current() *Snapshot { return s.cur.Load() }

// Replace publishes snap in one atomic swap
func (s *Store) Replace(snap *Snapshot) { s.cur.Store(snap) }

// Refresh fetches all feeds and publishes a new generation.
// On failure the previous snapshot stays; if nothing was ever loaded the disk cache is tried
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := logger.Named("blacklist")

	feeds, err := s.src.Fetch(ctx)
	if err != nil {
		if s.Current().Generation == 0 && s.cache != nil {
			if serr := s.seedLocked(); serr != nil {
				return errors.Join(err, serr)
			}
			log.Warn().Err(err).Str("dir", s.cache.Dir()).Msg("feed fetch failed; seeded from cache")
		}
		return err
	}

	snap := s.publishLocked(feeds, SourceFeed)
	st := snap.Stats()
	log.Info().
		Uint64("generation", st.Generation).
		Int("urls", st.URLs).
		Int("domains", st.Domains).
		Int("ips", st.IPs).
		Int("ranges", st.Ranges).
		Msg("blacklist refreshed")

	if s.cache != nil {
		if err := s.cache.Save(feeds); err != nil {
			log.Warn().Err(err).Str("dir", s.cache.Dir()).Msg("feed cache write failed")
		}
	}
	return nil
}

// SeedFromCache publishes the cached feeds as a new generation
func (s *Store) SeedFromCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return errors.New("blacklist: no cache configured")
	}
	return s.seedLocked()
}

// ReloadFromCache publishes the cached feeds when they differ from the
// current generation. Another process refreshing the same cache dir is
// picked up this way
func (s *Store) ReloadFromCache() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return false, errors.New("blacklist: no cache configured")
	}
	feeds, err := s.cache.Load()
	if err != nil {
		return false, err
	}
	if s.Current().Generation > 0 && sumFeeds(feeds) == s.sum {
		return false, nil
	}
	snap := s.publishLocked(feeds, SourceCache)
	logger.Named("blacklist").Info().
		Uint64("generation", snap.Generation).
		Str("dir", s.cache.Dir()).
		Msg("blacklist reloaded from cache")
	return true, nil
}

func (s *Store) seedLocked() error {
	feeds, err := s.cache.Load()
	if err != nil {
		return err
	}
	s.publishLocked(feeds, SourceCache)
	return nil
}

func (s *Store) publishLocked(f Feeds, src Source) *Snapshot {
	s.gen++
	snap := Build(f, s.gen, s.now(), src)
	s.sum = sumFeeds(f)
	s.Replace(snap)
	return snap
}

func sumFeeds(f Feeds) [sha256.Size]byte {
	h := sha256.New()
	var n [8]byte
	for _, b := range [][]byte{f.Domains, f.IPs, f.URLs} {
		binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	var out [sha256.Size]byte
	h.Sum(out[:0])
	return out
}

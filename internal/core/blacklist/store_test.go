package blacklist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	feeds Feeds
	err   error
}

func (s *stubSource) Fetch(context.Context) (Feeds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds, s.err
}

func (s *stubSource) set(f Feeds, err error) {
	s.mu.Lock()
	s.feeds, s.err = f, err
	s.mu.Unlock()
}

func TestStore_StartsEmptyNeverNil(t *testing.T) {
	s := NewStore(&stubSource{}, nil)
	require.NotNil(t, s.Current())
	assert.Equal(t, uint64(0), s.Current().Generation)
}

func TestStore_RefreshSwapsAndKeepsOnFailure(t *testing.T) {
	src := &stubSource{feeds: Feeds{Domains: []byte("evil.com")}}
	s := NewStore(src, nil)

	require.NoError(t, s.Refresh(context.Background()))
	first := s.Current()
	assert.Equal(t, uint64(1), first.Generation)
	assert.True(t, first.HasDomain("evil.com"))

	src.set(Feeds{}, errors.New("upstream down"))
	require.Error(t, s.Refresh(context.Background()))
	assert.Same(t, first, s.Current(), "failed refresh keeps the previous snapshot")

	src.set(Feeds{Domains: []byte("other.com")}, nil)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, uint64(2), s.Current().Generation)
	assert.False(t, s.Current().HasDomain("evil.com"), "refresh replaces, never merges")
	assert.True(t, first.HasDomain("evil.com"), "old snapshot is not mutated")
}

func TestStore_CacheWrittenAndSeeded(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feeds")
	src := &stubSource{feeds: Feeds{Domains: []byte("evil.com\n"), IPs: []byte("1.2.3.4\n"), URLs: []byte("http://m.com\n")}}

	require.NoError(t, NewStore(src, NewCache(dir)).Refresh(context.Background()))
	for _, name := range []string{DomainsFile, IPsFile, URLsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	left, _ := filepath.Glob(filepath.Join(dir, ".*"))
	assert.Empty(t, left, "no temp files left behind")

	down := &stubSource{err: errors.New("offline")}
	fresh := NewStore(down, NewCache(dir))
	err := fresh.Refresh(context.Background())
	require.Error(t, err, "fetch error is still reported")
	cur := fresh.Current()
	assert.Equal(t, SourceCache, cur.Source)
	assert.Equal(t, uint64(1), cur.Generation)
	assert.True(t, cur.HasIP("1.2.3.4"))

	require.Error(t, fresh.Refresh(context.Background()))
	assert.Same(t, cur, fresh.Current(), "cache is only used before the first good snapshot")
}

func TestStore_SeedNeedsAllFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DomainsFile), []byte("evil.com"), 0o644))

	s := NewStore(&stubSource{err: errors.New("offline")}, NewCache(dir))
	require.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, uint64(0), s.Current().Generation)

	require.Error(t, NewStore(&stubSource{}, nil).SeedFromCache())
}

func TestStore_ReloadFromCacheFollowsWriter(t *testing.T) {
	dir := t.TempDir()
	src := &stubSource{feeds: Feeds{Domains: []byte("evil.com\n")}}
	writer := NewStore(src, NewCache(dir))
	require.NoError(t, writer.Refresh(context.Background()))

	reader := NewStore(&stubSource{err: errors.New("unused")}, NewCache(dir))
	changed, err := reader.ReloadFromCache()
	require.NoError(t, err)
	assert.True(t, changed)
	first := reader.Current()
	assert.True(t, first.HasDomain("evil.com"))
	assert.Equal(t, SourceCache, first.Source)

	changed, err = reader.ReloadFromCache()
	require.NoError(t, err)
	assert.False(t, changed, "same bytes publish nothing")
	assert.Same(t, first, reader.Current())

	src.set(Feeds{Domains: []byte("other.com\n")}, nil)
	require.NoError(t, writer.Refresh(context.Background()))
	changed, err = reader.ReloadFromCache()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, reader.Current().HasDomain("other.com"))
	assert.False(t, reader.Current().HasDomain("evil.com"))

	_, err = NewStore(&stubSource{}, nil).ReloadFromCache()
	require.Error(t, err)
}

func TestStore_ConcurrentReadersSeeOneGeneration(t *testing.T) {
	src := &stubSource{}
	s := NewStore(src, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Current()
				// every generation lists exactly one domain and one matching url
				if snap.Generation > 0 {
					st := snap.Stats()
					if st.Domains != 1 || st.URLs != 1 {
						t.Errorf("torn snapshot %+v", st)
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		src.set(Feeds{Domains: []byte("d.com"), URLs: []byte("http://d.com")}, nil)
		require.NoError(t, s.Refresh(context.Background()))
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, uint64(50), s.Current().Generation)
}

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"StreamVibe/core/history"
	"StreamVibe/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu    sync.Mutex
	songs map[string]*model.Song
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{songs: make(map[string]*model.Song)}
}

func (c *fakeCache) Get(_ context.Context, videoID string) (*model.Song, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	song, ok := c.songs[videoID]
	return song, ok
}

func (c *fakeCache) Set(_ context.Context, videoID string, song *model.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs[videoID] = song
	c.sets++
}

func (c *fakeCache) Evict(_ context.Context, videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.songs, videoID)
}

type fakeSongStore struct {
	songs   map[string]*model.Song
	findErr error
	upserts int
}

func newFakeSongStore() *fakeSongStore {
	return &fakeSongStore{songs: make(map[string]*model.Song)}
}

func (s *fakeSongStore) FindByVideoID(_ context.Context, videoID string) (*model.Song, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.songs[videoID], nil
}

func (s *fakeSongStore) Upsert(_ context.Context, song *model.Song) error {
	s.songs[song.VideoID] = song
	s.upserts++
	return nil
}

type fakeFetcher struct {
	song  *model.Song
	err   error
	calls int
}

func (f *fakeFetcher) FetchSong(_ context.Context, _ string) (*model.Song, error) {
	f.calls++
	return f.song, f.err
}

type fakeUserStore struct {
	mu        sync.Mutex
	histories map[string]*model.UserHistory
	updates   int
}

func newFakeUserStore(emails ...string) *fakeUserStore {
	s := &fakeUserStore{histories: make(map[string]*model.UserHistory)}
	for _, email := range emails {
		s.histories[email] = &model.UserHistory{}
	}
	return s
}

func (s *fakeUserStore) GetHistory(email string) (*model.UserHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.histories[email], nil
}

func (s *fakeUserStore) UpdateHistory(email string, history *model.UserHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[email] = history
	s.updates++
	return nil
}

func freshSong(videoID string) *model.Song {
	return &model.Song{
		VideoID: videoID,
		Title:   "Fresh",
		Author:  "Author",
		AdaptiveFormats: []model.AdaptiveFormat{
			{URL: fmt.Sprintf("https://cdn.example.com/%s?expire=%d", videoID, time.Now().Add(6*time.Hour).Unix())},
		},
	}
}

func staleSong(videoID string) *model.Song {
	return &model.Song{
		VideoID: videoID,
		Title:   "Stale",
		AdaptiveFormats: []model.AdaptiveFormat{
			{URL: fmt.Sprintf("https://cdn.example.com/%s?expire=%d", videoID, time.Now().Add(-time.Hour).Unix())},
		},
	}
}

func TestResolve_EndToEndScenario(t *testing.T) {
	// abc123 既不在缓存也不在库：上游拉取一次，落库、回填缓存，
	// TTL窗口内的第二次解析不再触发上游
	songCache := newFakeCache()
	store := newFakeSongStore()
	fetcher := &fakeFetcher{song: freshSong("abc123")}
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, song)
	assert.Equal(t, 1, fetcher.calls)
	assert.NotNil(t, store.songs["abc123"], "store now contains the song")

	cached, ok := songCache.Get(context.Background(), "abc123")
	require.True(t, ok, "cache now contains the song")
	assert.Equal(t, song, cached)

	again, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, song, again)
	assert.Equal(t, 1, fetcher.calls, "no upstream call on the second resolution")
}

func TestResolve_StoreHitNotExpiredSkipsFetch(t *testing.T) {
	songCache := newFakeCache()
	store := newFakeSongStore()
	store.songs["abc123"] = freshSong("abc123")
	fetcher := &fakeFetcher{}
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", song.Title)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 1, songCache.sets, "store hit populates the ephemeral cache")
}

func TestResolve_ExpiredStoreEntryTriggersRefetch(t *testing.T) {
	songCache := newFakeCache()
	store := newFakeSongStore()
	store.songs["abc123"] = staleSong("abc123")
	fetcher := &fakeFetcher{song: freshSong("abc123")}
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", song.Title)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, store.upserts, "replaced wholesale")
	assert.Equal(t, "Fresh", store.songs["abc123"].Title)
}

func TestResolve_CacheHitSkipsEverything(t *testing.T) {
	songCache := newFakeCache()
	songCache.Set(context.Background(), "abc123", freshSong("abc123"))
	songCache.sets = 0
	store := newFakeSongStore()
	store.findErr = fmt.Errorf("store must not be queried on cache hit")
	fetcher := &fakeFetcher{}
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", song.Title)
	assert.Equal(t, 0, fetcher.calls)
}

func TestResolve_FetchFailureLeavesNoTraces(t *testing.T) {
	songCache := newFakeCache()
	store := newFakeSongStore()
	cause := errors.New("upstream down")
	fetcher := &fakeFetcher{err: cause}
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	assert.Nil(t, song)
	assert.ErrorIs(t, err, ErrUpstreamFailed)
	assert.ErrorIs(t, err, cause, "underlying cause stays in the error chain")
	assert.Equal(t, 0, store.upserts, "no store write on fetch failure")
	assert.Equal(t, 0, songCache.sets, "no cache write on fetch failure")
}

func TestResolve_EmptyUpstreamResultIsNotFound(t *testing.T) {
	songCache := newFakeCache()
	store := newFakeSongStore()
	fetcher := &fakeFetcher{} // (nil, nil)
	r := New(songCache, store, fetcher, nil)

	song, err := r.Resolve(context.Background(), "abc123")
	assert.Nil(t, song)
	assert.ErrorIs(t, err, ErrSongNotFound)
	assert.Equal(t, 0, store.upserts)
}

func TestNotifyPlayed_DispatchesForWellFormedEmail(t *testing.T) {
	users := newFakeUserStore("user@example.com")
	tracker := history.NewTracker(users)
	r := New(newFakeCache(), newFakeSongStore(), &fakeFetcher{}, tracker)

	r.NotifyPlayed(freshSong("abc123"), "user@example.com")
	tracker.Wait()

	assert.Equal(t, 1, users.updates)
	h := users.histories["user@example.com"]
	require.Len(t, h.RecentlyPlayed, 1)
	assert.Equal(t, "abc123", h.RecentlyPlayed[0].VideoID)
}

func TestNotifyPlayed_SkipsMalformedEmail(t *testing.T) {
	users := newFakeUserStore("user@example.com")
	tracker := history.NewTracker(users)
	r := New(newFakeCache(), newFakeSongStore(), &fakeFetcher{}, tracker)

	r.NotifyPlayed(freshSong("abc123"), "not-an-email")
	r.NotifyPlayed(freshSong("abc123"), "")
	tracker.Wait()

	assert.Equal(t, 0, users.updates)
}

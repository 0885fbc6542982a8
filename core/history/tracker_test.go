package history

import (
	"fmt"
	"sync"
	"testing"

	"StreamVibe/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	mu        sync.Mutex
	histories map[string]*model.UserHistory
	updates   int
	updateErr error
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
	if s.updateErr != nil {
		return s.updateErr
	}
	s.histories[email] = history
	s.updates++
	return nil
}

func play(videoID, title string) model.PlaySummary {
	return model.PlaySummary{
		VideoID:   videoID,
		Title:     title,
		Author:    "Author",
		Thumbnail: "https://img.example.com/" + videoID,
		Duration:  180,
	}
}

func TestRecordPlay_RecencyDedup(t *testing.T) {
	const email = "user@example.com"
	users := newFakeUserStore(email)
	tracker := NewTracker(users)

	// 播放 A、B、A：recent 应为 [A, B]，A被移到最前且不重复
	require.NoError(t, tracker.RecordPlay(email, play("A", "Song A")))
	require.NoError(t, tracker.RecordPlay(email, play("B", "Song B")))
	require.NoError(t, tracker.RecordPlay(email, play("A", "Song A")))

	recent := users.histories[email].RecentlyPlayed
	require.Len(t, recent, 2)
	assert.Equal(t, "A", recent[0].VideoID)
	assert.Equal(t, "B", recent[1].VideoID)
}

func TestRecordPlay_FrequencyIncrementKeepsFirstFields(t *testing.T) {
	const email = "user@example.com"
	users := newFakeUserStore(email)
	tracker := NewTracker(users)

	// 同一首歌播放三次，后两次的描述字段不同
	require.NoError(t, tracker.RecordPlay(email, play("A", "Original Title")))
	require.NoError(t, tracker.RecordPlay(email, play("A", "Renamed Title")))
	require.NoError(t, tracker.RecordPlay(email, play("A", "Renamed Again")))

	frequent := users.histories[email].MostPlayed
	require.Len(t, frequent, 1)
	assert.Equal(t, 3, frequent[0].Count)
	assert.Equal(t, "Original Title", frequent[0].Title, "descriptive fields come from the first play")

	// recent 保存的是最新一次的字段
	assert.Equal(t, "Renamed Again", users.histories[email].RecentlyPlayed[0].Title)
}

func TestRecordPlay_NewSongStartsAtOne(t *testing.T) {
	const email = "user@example.com"
	users := newFakeUserStore(email)
	tracker := NewTracker(users)

	require.NoError(t, tracker.RecordPlay(email, play("A", "Song A")))
	require.NoError(t, tracker.RecordPlay(email, play("B", "Song B")))

	frequent := users.histories[email].MostPlayed
	require.Len(t, frequent, 2)
	for _, entry := range frequent {
		assert.Equal(t, 1, entry.Count)
	}
}

func TestRecordPlay_UnknownUserIsSilentNoop(t *testing.T) {
	users := newFakeUserStore() // no users at all
	tracker := NewTracker(users)

	err := tracker.RecordPlay("ghost@example.com", play("A", "Song A"))
	assert.NoError(t, err, "unknown user must not surface an error")
	assert.Equal(t, 0, users.updates, "no store write for unknown user")
}

func TestDispatch_IsAsyncAndNeverSurfacesErrors(t *testing.T) {
	const email = "user@example.com"
	users := newFakeUserStore(email)
	users.updateErr = fmt.Errorf("write failed")
	tracker := NewTracker(users)

	// 写失败只会被记录，不会panic也不会传播
	tracker.Dispatch(email, play("A", "Song A"))
	tracker.Wait()

	assert.Equal(t, 0, users.updates)
}

func TestDispatch_ConcurrentPlaysSameUser(t *testing.T) {
	const email = "user@example.com"
	users := newFakeUserStore(email)
	tracker := NewTracker(users)

	for i := 0; i < 20; i++ {
		tracker.Dispatch(email, play("A", "Song A"))
	}
	tracker.Wait()

	// 按用户串行化后，20次并发播放不会互相覆盖
	require.Len(t, users.histories[email].MostPlayed, 1)
	assert.Equal(t, 20, users.histories[email].MostPlayed[0].Count)
	assert.Len(t, users.histories[email].RecentlyPlayed, 1)
}

func TestDispatch_LockTableDrainsWhenIdle(t *testing.T) {
	users := newFakeUserStore("a@example.com", "b@example.com")
	tracker := NewTracker(users)

	for i := 0; i < 10; i++ {
		tracker.Dispatch("a@example.com", play("A", "Song A"))
		tracker.Dispatch("b@example.com", play("B", "Song B"))
	}
	tracker.Wait()

	// 锁表不随历史上出现过的用户数累积，空闲后清空
	assert.Empty(t, tracker.locks)
}

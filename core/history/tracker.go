package history

import (
	"sync"

	"StreamVibe/logger"
	"StreamVibe/model"

	"github.com/google/uuid"
)

// UserStore 是历史更新所需的最小用户存储接口。
// GetHistory 对不存在的用户返回 (nil, nil)。
type UserStore interface {
	GetHistory(email string) (*model.UserHistory, error)
	UpdateHistory(email string, history *model.UserHistory) error
}

// userLock 按引用计数回收，空闲用户不在锁表中占条目
type userLock struct {
	mu   sync.Mutex
	refs int
}

// Tracker 维护每个用户的最近播放和最常播放两个视图。
// 更新是建议性质的：失败只记日志，从不影响解析结果。
type Tracker struct {
	users UserStore

	mu    sync.Mutex
	locks map[string]*userLock // 按用户串行化读改写，避免同一用户并发更新互相覆盖

	wg sync.WaitGroup
}

// NewTracker 创建Tracker
func NewTracker(users UserStore) *Tracker {
	return &Tracker{
		users: users,
		locks: make(map[string]*userLock),
	}
}

// Dispatch 异步调度一次播放记录更新，立即返回。
// 调用方不等待完成，也观察不到失败。
func (t *Tracker) Dispatch(email string, summary model.PlaySummary) {
	eventID := uuid.NewString()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		if err := t.RecordPlay(email, summary); err != nil {
			logger.Error("[UserHistory] 更新失败",
				logger.String("eventId", eventID),
				logger.String("email", email),
				logger.String("videoId", summary.VideoID),
				logger.ErrorField(err))
			return
		}

		logger.Debug("[UserHistory] 更新完成",
			logger.String("eventId", eventID),
			logger.String("email", email),
			logger.String("videoId", summary.VideoID))
	}()
}

// Wait 等待所有已调度的更新完成，用于优雅停机和测试
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// RecordPlay 同步执行一次播放记录更新。
// 用户不存在时静默跳过（不隐式建用户）；两个视图在一次读改写中一起落库。
func (t *Tracker) RecordPlay(email string, summary model.PlaySummary) error {
	lock := t.lockFor(email)
	defer t.release(email, lock)

	current, err := t.users.GetHistory(email)
	if err != nil {
		return err
	}
	if current == nil {
		// 历史只为已注册用户记录
		logger.Debug("[UserHistory] 用户不存在，跳过", logger.String("email", email))
		return nil
	}

	updated := mergePlay(current, summary)
	return t.users.UpdateHistory(email, updated)
}

// mergePlay 将一次播放合入两个视图：
// recentlyPlayed 去重后插到最前；mostPlayed 命中则只加计数
// （保留首次播放时的描述字段），否则以计数1追加。
func mergePlay(current *model.UserHistory, summary model.PlaySummary) *model.UserHistory {
	recent := make([]model.PlaySummary, 0, len(current.RecentlyPlayed)+1)
	recent = append(recent, summary)
	for _, item := range current.RecentlyPlayed {
		if item.VideoID != summary.VideoID {
			recent = append(recent, item)
		}
	}

	frequent := current.MostPlayed
	found := false
	for i := range frequent {
		if frequent[i].VideoID == summary.VideoID {
			frequent[i].Count++
			found = true
			break
		}
	}
	if !found {
		frequent = append(frequent, model.PlayCount{PlaySummary: summary, Count: 1})
	}

	return &model.UserHistory{
		RecentlyPlayed: recent,
		MostPlayed:     frequent,
	}
}

// lockFor 返回已加锁的用户锁，调用方必须用 release 归还
func (t *Tracker) lockFor(email string) *userLock {
	t.mu.Lock()
	lock, ok := t.locks[email]
	if !ok {
		lock = &userLock{}
		t.locks[email] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// release 解锁并在最后一个持有者归还时从锁表删除条目
func (t *Tracker) release(email string, lock *userLock) {
	lock.mu.Unlock()

	t.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(t.locks, email)
	}
	t.mu.Unlock()
}

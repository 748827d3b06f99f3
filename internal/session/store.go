// Package session は匿名セッションごとの絞り込み状態を保持する。
package session

import (
	"sync"
	"time"

	"github.com/hitoshi/kbase/internal/filter"
)

// Config はセッションストアの設定を保持する。
type Config struct {
	MaxAge          time.Duration // 最終アクセスからこの時間を過ぎたセッションは破棄する
	CleanupInterval time.Duration // 期限切れセッションの掃除間隔
}

// entry はセッションの状態と最終アクセス時刻を保持する。
type entry struct {
	state      filter.State
	lastAccess time.Time
}

// Store はセッションIDごとの filter.State を保持する。
// 状態の更新は Update を通してのみ行い、同一セッションへの遷移は直列化される。
type Store struct {
	config Config

	mu      sync.Mutex
	entries map[string]*entry

	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// NewStore は新しいStoreを生成する。
// バックグラウンドで期限切れセッションのクリーンアップを開始する。
func NewStore(config Config) *Store {
	s := &Store{
		config:  config,
		entries: make(map[string]*entry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (s *Store) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// Get はセッションの現在の状態を返す。未知のセッションには既定の状態を返す。
func (s *Store) Get(id string) filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return filter.Default()
	}
	e.lastAccess = s.now()
	return e.state
}

// Update は現在の状態に fn を適用し、成功した場合のみ結果を保存する。
// fn がエラーを返した場合は状態を変えずに現在の状態とエラーを返す。
// fn はロックを保持したまま呼ばれるため、ストアを再入呼び出ししてはならない。
func (s *Store) Update(id string, fn func(filter.State) (filter.State, error)) (filter.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := filter.Default()
	if e, ok := s.entries[id]; ok {
		current = e.state
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	s.entries[id] = &entry{state: next, lastAccess: s.now()}
	return next, nil
}

// Count は保持しているセッション数を返す。
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) cleanupLoop() {
	if s.config.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup は最終アクセスから MaxAge を超えたセッションを削除し、削除数を返す。
func (s *Store) cleanup() int {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for id, e := range s.entries {
		if now.Sub(e.lastAccess) > s.config.MaxAge {
			delete(s.entries, id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

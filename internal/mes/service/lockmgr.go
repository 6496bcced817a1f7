package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// LockManager 进程内按键互斥锁。发料路径用它把对料件的修改
// 按 piece id 升序串行化：固定顺序加锁避免两个方案互相等待，
// 有界等待保证不会死锁挂起。
type LockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]chan struct{})}
}

func (m *LockManager) lockChan(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	return ch
}

// AcquireAll 按升序获取全部键的锁。任一键在截止时间内拿不到锁则
// 释放已获取的锁并返回 ErrLockTimeout；成功时返回释放函数，
// 调用方必须在所有退出路径上调用它。
func (m *LockManager) AcquireAll(ctx context.Context, keys []string, wait time.Duration) (func(), error) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	deadline := time.Now().Add(wait)
	var held []chan struct{}
	release := func() {
		// 逆序释放
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range sorted {
		ch := m.lockChan(key)
		remaining := time.Until(deadline)
		if remaining <= 0 {
			release()
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}
		timer := time.NewTimer(remaining)
		select {
		case ch <- struct{}{}:
			timer.Stop()
			held = append(held, ch)
		case <-timer.C:
			release()
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-ctx.Done():
			timer.Stop()
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

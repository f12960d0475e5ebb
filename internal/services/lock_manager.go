// internal/services/lock_manager.go
package services

import (
	"sync"
	"time"
)

// LockManager 账户级别的锁管理器
type LockManager struct {
	accountLocks map[string]*LockInfo
	globalLock   sync.Mutex
	lockTTL      time.Duration
	maxLocks     int

	stop     chan struct{}
	stopOnce sync.Once
}

// LockInfo 包装锁和相关信息
type LockInfo struct {
	Mutex    *sync.Mutex
	LastUsed time.Time
	// 当前持有或等待该锁的调用数，>0 时不会被清理
	refs int
}

// NewLockManager 创建锁管理器
func NewLockManager() *LockManager {
	lm := &LockManager{
		accountLocks: make(map[string]*LockInfo),
		lockTTL:      30 * time.Minute,
		maxLocks:     200,
		stop:         make(chan struct{}),
	}
	go lm.cleanupLoop(5 * time.Minute)
	return lm
}

func (lm *LockManager) acquire(accountID string) *LockInfo {
	lm.globalLock.Lock()
	info, ok := lm.accountLocks[accountID]
	if !ok {
		info = &LockInfo{Mutex: &sync.Mutex{}}
		lm.accountLocks[accountID] = info
	}
	info.refs++
	info.LastUsed = time.Now()
	lm.globalLock.Unlock()
	return info
}

func (lm *LockManager) release(info *LockInfo) {
	lm.globalLock.Lock()
	info.refs--
	info.LastUsed = time.Now()
	lm.globalLock.Unlock()
}

// WithAccountLock runs fn while holding the account's lock. Record
// read-modify-write cycles for one account go through here.
func (lm *LockManager) WithAccountLock(accountID string, fn func() error) error {
	info := lm.acquire(accountID)
	defer lm.release(info)

	info.Mutex.Lock()
	defer info.Mutex.Unlock()
	return fn()
}

// Size 当前跟踪的锁数量
func (lm *LockManager) Size() int {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()
	return len(lm.accountLocks)
}

// Close stops the cleanup goroutine.
func (lm *LockManager) Close() {
	lm.stopOnce.Do(func() { close(lm.stop) })
}

func (lm *LockManager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-lm.stop:
			return
		case <-ticker.C:
			lm.cleanupUnusedLocks(time.Now())
		}
	}
}

// 只在锁数量过多时清理长时间未使用且无人引用的锁
func (lm *LockManager) cleanupUnusedLocks(now time.Time) {
	lm.globalLock.Lock()
	defer lm.globalLock.Unlock()

	if len(lm.accountLocks) <= lm.maxLocks {
		return
	}
	for id, info := range lm.accountLocks {
		if info.refs == 0 && now.Sub(info.LastUsed) > lm.lockTTL {
			delete(lm.accountLocks, id)
		}
	}
}

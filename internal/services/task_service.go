// internal/services/task_service.go
package services

import (
	"fmt"
	"sync"
	"time"
)

// 任务状态
const (
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// TaskUpdate 表示一次任务进度推送
type TaskUpdate struct {
	TaskID   string `json:"task_id"`
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// TaskTracker 跟踪一个异步生成任务
type TaskTracker struct {
	TaskID     string
	AccountID  string
	Progress   int
	Message    string
	Status     string
	StartTime  time.Time
	UpdateTime time.Time
	Done       chan struct{}

	subscribers map[chan TaskUpdate]struct{}
	mutex       sync.Mutex
}

// TaskService 管理所有任务跟踪器
type TaskService struct {
	trackers map[string]*TaskTracker
	mutex    sync.RWMutex
}

// NewTaskService 创建任务服务
func NewTaskService() *TaskService {
	return &TaskService{trackers: make(map[string]*TaskTracker)}
}

// CreateTracker returns the tracker for taskID, creating it if needed.
func (s *TaskService) CreateTracker(taskID, accountID string) *TaskTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}
	now := time.Now()
	tracker := &TaskTracker{
		TaskID:      taskID,
		AccountID:   accountID,
		Message:     "任务初始化中...",
		Status:      TaskRunning,
		StartTime:   now,
		UpdateTime:  now,
		Done:        make(chan struct{}),
		subscribers: make(map[chan TaskUpdate]struct{}),
	}
	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker 获取任务跟踪器
func (s *TaskService) GetTracker(taskID string) (*TaskTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// Snapshot returns the tracker's current state.
func (t *TaskTracker) Snapshot() TaskUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.snapshotLocked()
}

func (t *TaskTracker) snapshotLocked() TaskUpdate {
	return TaskUpdate{TaskID: t.TaskID, Progress: t.Progress, Message: t.Message, Status: t.Status}
}

// 非阻塞通知所有订阅者，通道已满则跳过
func (t *TaskTracker) broadcastLocked() {
	update := t.snapshotLocked()
	for sub := range t.subscribers {
		select {
		case sub <- update:
		default:
		}
	}
}

func (t *TaskTracker) finishedLocked() bool {
	return t.Status != TaskRunning
}

// UpdateProgress 更新任务进度，进度只增不减
func (t *TaskTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finishedLocked() {
		return
	}

	if progress > t.Progress {
		t.Progress = min(progress, 99)
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcastLocked()
}

// Complete 标记任务完成
func (t *TaskTracker) Complete(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finishedLocked() {
		return
	}

	t.Progress = 100
	t.Message = message
	if t.Message == "" {
		t.Message = "任务已完成"
	}
	t.Status = TaskCompleted
	t.UpdateTime = time.Now()
	t.broadcastLocked()
	close(t.Done)
}

// Fail 标记任务失败
func (t *TaskTracker) Fail(errorMsg string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.finishedLocked() {
		return
	}

	t.Message = fmt.Sprintf("任务失败: %s", errorMsg)
	t.Status = TaskFailed
	t.UpdateTime = time.Now()
	t.broadcastLocked()
	close(t.Done)
}

// Subscribe 订阅进度更新，立即收到当前状态
func (t *TaskTracker) Subscribe() chan TaskUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	sub := make(chan TaskUpdate, 10)
	t.subscribers[sub] = struct{}{}
	sub <- t.snapshotLocked()
	return sub
}

// Unsubscribe 取消订阅
func (t *TaskTracker) Unsubscribe(sub chan TaskUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.subscribers[sub]; ok {
		delete(t.subscribers, sub)
		close(sub)
	}
}

// CleanupCompletedTasks 清理已结束且超过 maxAge 的任务
func (s *TaskService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.finishedLocked() && now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()
		if stale {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

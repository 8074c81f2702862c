// Package connection 传感器连接管理
//
// 状态机：Disconnected → Connecting → Connected → Disconnected ...
// 连接失败或断开后等待固定时长再重试，无最大重试次数，直到进程退出。
package connection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"wisefido-vitals/internal/link"
	"wisefido-vitals/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetryDelay 重试间隔
const DefaultRetryDelay = 5 * time.Second

// Sleeper 等待 d；ctx 取消时提前返回 ctx.Err()
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext 默认 Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager 持有到传感器的链路，断线后自动重连
type Manager struct {
	link       link.Link
	onNotify   link.NotificationHandler
	retryDelay time.Duration
	sleep      Sleeper
	logger     *zap.Logger

	state    atomic.Uint32
	attempts atomic.Uint64
	sessions atomic.Uint64

	mu        sync.Mutex
	sessionID string
}

// NewManager 创建连接管理器；onNotify 在连接上下文中被同步调用
func NewManager(l link.Link, onNotify link.NotificationHandler, retryDelay time.Duration, logger *zap.Logger) *Manager {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Manager{
		link:       l,
		onNotify:   onNotify,
		retryDelay: retryDelay,
		sleep:      SleepContext,
		logger:     logger,
	}
}

// SetSleeper 替换等待策略（测试中使用不等待的实现）
func (m *Manager) SetSleeper(s Sleeper) {
	m.sleep = s
}

// Run 连接循环；只在 ctx 取消时返回，返回前关闭当前连接
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("Starting connection manager",
		zap.String("link", m.link.Name()),
		zap.Duration("retry_delay", m.retryDelay),
	)

	for {
		if err := m.runOnce(ctx); err != nil {
			m.setState(models.LinkDisconnected, "")
			m.logger.Info("Connection manager stopped", zap.String("link", m.link.Name()))
			return err
		}

		if err := m.sleep(ctx, m.retryDelay); err != nil {
			m.logger.Info("Connection manager stopped", zap.String("link", m.link.Name()))
			return err
		}
	}
}

// runOnce 一次连接尝试，直到连接失败或断开；只在 ctx 取消时返回错误
func (m *Manager) runOnce(ctx context.Context) error {
	id := uuid.NewString()
	attempt := m.attempts.Add(1)
	m.setState(models.LinkConnecting, id)

	m.logger.Info("Attempting to connect",
		zap.String("link", m.link.Name()),
		zap.String("session_id", id),
		zap.Uint64("attempt", attempt),
	)

	sess, err := m.link.Connect(ctx, m.onNotify)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.setState(models.LinkDisconnected, "")
		m.logger.Error("Connection error, retrying",
			zap.String("link", m.link.Name()),
			zap.String("session_id", id),
			zap.Duration("retry_delay", m.retryDelay),
			zap.Error(err),
		)
		return nil
	}

	m.sessions.Add(1)
	m.setState(models.LinkConnected, id)
	m.logger.Info("Connected",
		zap.String("link", m.link.Name()),
		zap.String("session_id", id),
	)

	select {
	case <-sess.Done():
		m.setState(models.LinkDisconnected, "")
		if cerr := sess.Close(); cerr != nil {
			m.logger.Debug("Failed to close lost session", zap.String("session_id", id), zap.Error(cerr))
		}
		m.logger.Error("Connection lost, retrying",
			zap.String("link", m.link.Name()),
			zap.String("session_id", id),
			zap.Duration("retry_delay", m.retryDelay),
			zap.Error(sess.Err()),
		)
		return nil

	case <-ctx.Done():
		if cerr := sess.Close(); cerr != nil {
			m.logger.Warn("Failed to close link on shutdown", zap.String("session_id", id), zap.Error(cerr))
		} else {
			m.logger.Info("Disconnected sensor link", zap.String("session_id", id))
		}
		return ctx.Err()
	}
}

func (m *Manager) setState(s models.LinkState, sessionID string) {
	m.state.Store(uint32(s))
	m.mu.Lock()
	m.sessionID = sessionID
	m.mu.Unlock()
}

func (m *Manager) State() models.LinkState {
	return models.LinkState(m.state.Load())
}

// Connected 对外唯一暴露的连接标志
func (m *Manager) Connected() bool {
	return m.State() == models.LinkConnected
}

// Stats 连接统计
func (m *Manager) Stats() models.ConnectionStats {
	m.mu.Lock()
	id := m.sessionID
	m.mu.Unlock()

	state := m.State()
	return models.ConnectionStats{
		Connected: state == models.LinkConnected,
		State:     state,
		Attempts:  m.attempts.Load(),
		Sessions:  m.sessions.Load(),
		SessionID: id,
	}
}

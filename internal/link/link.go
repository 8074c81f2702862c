// Package link 传感器无线链路
//
// Link.Connect 只做一次连接尝试；重试由 connection.Manager 负责。
// 连接成功后每条通知原样交给 NotificationHandler（同步调用）。
package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLinkLost 链路断开
var ErrLinkLost = errors.New("link lost")

// NotificationHandler 通知回调，payload 为一帧原始数据
type NotificationHandler func(payload []byte)

// Link 一种传输方式（BLE 直连 / BLE→MQTT 网关）
type Link interface {
	Connect(ctx context.Context, onNotify NotificationHandler) (Session, error)
	Name() string
}

// Session 一次已建立的连接
type Session interface {
	// Done 连接结束（断开或 Close）时关闭
	Done() <-chan struct{}
	// Err 连接断开的原因；主动 Close 时为 nil
	Err() error
	Close() error
}

// session Session 的通用实现
type session struct {
	done      chan struct{}
	once      sync.Once
	closeOnce sync.Once

	mu      sync.Mutex
	err     error
	closeFn func() error
}

func newSession() *session {
	return &session{done: make(chan struct{})}
}

func (s *session) setCloser(fn func() error) {
	s.mu.Lock()
	s.closeFn = fn
	s.mu.Unlock()
}

// lost 标记链路断开（可重复调用，只有第一次生效）
func (s *session) lost(cause error) {
	s.once.Do(func() {
		s.mu.Lock()
		if cause == nil {
			s.err = ErrLinkLost
		} else {
			s.err = fmt.Errorf("%w: %v", ErrLinkLost, cause)
		}
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Close() error {
	s.once.Do(func() { close(s.done) })

	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		fn := s.closeFn
		s.mu.Unlock()
		if fn != nil {
			err = fn()
		}
	})
	return err
}

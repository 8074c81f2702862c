package publisher

import (
	"context"
	"fmt"
	"time"

	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ArbiterView 仲裁器的只读视图
type ArbiterView interface {
	Stats() models.ArbiterStats
	LastGood() models.Reading
}

// ConnectionView 连接管理器的只读视图
type ConnectionView interface {
	Stats() models.ConnectionStats
}

// StatusPublisher 定时把设备状态快照写入 Redis（带 TTL，只作实时视图）
type StatusPublisher struct {
	client   redis.Cmdable
	arbiter  ArbiterView
	conn     ConnectionView
	deviceID string
	key      string
	interval time.Duration
	ttl      time.Duration
	logger   *zap.Logger
}

// NewStatusPublisher 创建状态发布器；key = <keyPrefix><deviceID>:status，TTL = 3 × interval
func NewStatusPublisher(
	client redis.Cmdable,
	arbiter ArbiterView,
	conn ConnectionView,
	deviceID string,
	keyPrefix string,
	interval time.Duration,
	logger *zap.Logger,
) *StatusPublisher {
	return &StatusPublisher{
		client:   client,
		arbiter:  arbiter,
		conn:     conn,
		deviceID: deviceID,
		key:      fmt.Sprintf("%s%s:status", keyPrefix, deviceID),
		interval: interval,
		ttl:      3 * interval,
		logger:   logger,
	}
}

func (p *StatusPublisher) Key() string {
	return p.key
}

// Snapshot 当前状态
func (p *StatusPublisher) Snapshot() models.StatusSnapshot {
	return models.StatusSnapshot{
		DeviceID:   p.deviceID,
		Connection: p.conn.Stats(),
		Arbiter:    p.arbiter.Stats(),
		LastGood:   p.arbiter.LastGood(),
		Timestamp:  time.Now().Unix(),
	}
}

// PublishOnce 写入一次快照
func (p *StatusPublisher) PublishOnce(ctx context.Context) error {
	snap := p.Snapshot()
	if err := rediscommon.SetJSON(ctx, p.client, p.key, snap, p.ttl); err != nil {
		return err
	}

	p.logger.Debug("Published status snapshot",
		zap.String("key", p.key),
		zap.Bool("connected", snap.Connection.Connected),
		zap.Stringer("mode", snap.Arbiter.Mode),
		zap.Int("queue_len", snap.Arbiter.QueueLen),
	)
	return nil
}

// Run 每个 interval 发布一次，直到 ctx 取消；写入失败只记录日志
func (p *StatusPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.PublishOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("Failed to publish status snapshot", zap.String("key", p.key), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

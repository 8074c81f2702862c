// Package arbiter 数据源仲裁
//
// 每次读取时根据当前模式、实时队列是否有数据，决定返回：
//   - 实时队列中的一条（LiveStreaming）
//   - 录制数据的下一行（RecordedStreaming）
//   - ErrCleared（Paused）
//
// 读取过程中出现意外错误时返回最近一次有效数据（cache）。
// 模式、队列由同一把锁保护，Pause 的“切换模式 + 清空队列”对读取方是原子的。
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"wisefido-vitals/internal/decoder"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/playback"
	"wisefido-vitals/internal/store"

	"go.uber.org/zap"
)

// ErrCleared 已暂停（UI 点击 Temp），不返回任何数据
var ErrCleared = errors.New("vitals cleared")

// Arbiter 数据源仲裁器，同时负责实时帧的写入
type Arbiter struct {
	mu    sync.Mutex
	mode  models.Mode
	queue *store.LiveQueue

	cache  *store.Cache
	source playback.Source
	logger *zap.Logger

	framesReceived atomic.Uint64
	decodeFailures atomic.Uint64
	liveDropped    atomic.Uint64
	servedLive     atomic.Uint64
	servedRecorded atomic.Uint64
	servedCache    atomic.Uint64
}

// NewArbiter 创建仲裁器，初始模式为 RecordedStreaming
func NewArbiter(queue *store.LiveQueue, cache *store.Cache, source playback.Source, logger *zap.Logger) *Arbiter {
	return &Arbiter{
		mode:   models.ModeRecordedStreaming,
		queue:  queue,
		cache:  cache,
		source: source,
		logger: logger,
	}
}

// Ingest 处理一帧通知数据（由连接管理器同步调用）
// 解码成功：更新 cache 并写入实时队列；解码失败：只计数，cache 与队列保持不变
func (a *Arbiter) Ingest(raw []byte) {
	a.framesReceived.Add(1)

	reading, err := decoder.Decode(raw, a.cache.Get())
	if err != nil {
		a.decodeFailures.Add(1)
		a.logger.Warn("Failed to decode frame, keeping cached reading",
			zap.Int("frame_len", len(raw)),
			zap.Error(err),
		)
		return
	}

	a.cache.Set(reading)

	a.mu.Lock()
	dropped := a.queue.Push(reading)
	a.mu.Unlock()

	if dropped {
		a.liveDropped.Add(1)
	}
	a.logger.Debug("Decoded frame",
		zap.Int("frame_len", len(raw)),
		zap.Int32("ecg", reading.ECG),
		zap.Uint8("heart_rate", reading.HeartRate),
		zap.Uint8("spo2", reading.SpO2),
	)
}

// Apply 处理 UI 模式切换事件；重复设置同一模式不产生变化
func (a *Arbiter) Apply(event models.ModeEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	from := a.mode
	switch event {
	case models.EventEnableLive:
		a.mode = models.ModeLiveStreaming
	case models.EventSelectRecorded:
		a.mode = models.ModeRecordedStreaming
	case models.EventPause:
		a.mode = models.ModePaused
		a.queue.Clear()
	default:
		return fmt.Errorf("unknown mode event: %d", event)
	}

	a.logModeChange(event.String(), from, a.mode)
	return nil
}

// EnableLive 切换到实时数据（是否真正返回实时数据取决于读取时队列是否为空）
func (a *Arbiter) EnableLive() { _ = a.Apply(models.EventEnableLive) }

// SelectRecorded 切换到录制数据
func (a *Arbiter) SelectRecorded() { _ = a.Apply(models.EventSelectRecorded) }

// Pause 暂停并清空实时队列
func (a *Arbiter) Pause() { _ = a.Apply(models.EventPause) }

func (a *Arbiter) Mode() models.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// GetReading 返回本次应当提供给 UI 的数据
//
// 返回:
//   - ErrCleared: 已暂停
//   - playback.ErrEmpty（或 ErrNotFound）: 录制数据为空或不存在，不以 cache 代替
//   - 其他情况总能得到一条数据，source 标明来源
func (a *Arbiter) GetReading(ctx context.Context) (models.Reading, models.ReadingSource, error) {
	a.mu.Lock()
	switch a.mode {
	case models.ModePaused:
		a.mu.Unlock()
		return models.Reading{}, "", ErrCleared

	case models.ModeLiveStreaming:
		if r, ok := a.queue.Pop(); ok {
			a.mu.Unlock()
			a.servedLive.Add(1)
			return r, models.SourceLive, nil
		}
		// 队列为空：本次请求内直接降级到录制数据
		a.mode = models.ModeRecordedStreaming
		a.logModeChange("live_queue_empty", models.ModeLiveStreaming, a.mode)
	}
	a.mu.Unlock()

	return a.nextRecorded(ctx)
}

func (a *Arbiter) nextRecorded(ctx context.Context) (r models.Reading, src models.ReadingSource, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, src, err = a.fallback(fmt.Errorf("recorded playback panic: %v", p))
		}
	}()

	row, err := a.source.Next(ctx)
	if err != nil {
		if errors.Is(err, playback.ErrEmpty) {
			return models.Reading{}, "", err
		}
		return a.fallback(err)
	}

	reading, err := row.Reading()
	if err != nil {
		return a.fallback(fmt.Errorf("invalid recorded row: %w", err))
	}

	a.servedRecorded.Add(1)
	return reading, models.SourceRecorded, nil
}

// fallback 意外错误时返回最近一次有效数据
func (a *Arbiter) fallback(cause error) (models.Reading, models.ReadingSource, error) {
	a.servedCache.Add(1)
	a.logger.Warn("Serving cached reading", zap.Error(cause))
	return a.cache.Get(), models.SourceCache, nil
}

func (a *Arbiter) logModeChange(reason string, from, to models.Mode) {
	if from == to {
		a.logger.Debug("Mode unchanged", zap.String("reason", reason), zap.Stringer("mode", to))
		return
	}
	a.logger.Info("Mode changed",
		zap.String("reason", reason),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}

// Stats 计数快照
func (a *Arbiter) Stats() models.ArbiterStats {
	a.mu.Lock()
	mode, qlen, qcap := a.mode, a.queue.Len(), a.queue.Cap()
	a.mu.Unlock()

	return models.ArbiterStats{
		Mode:           mode,
		QueueLen:       qlen,
		QueueCapacity:  qcap,
		FramesReceived: a.framesReceived.Load(),
		DecodeFailures: a.decodeFailures.Load(),
		LiveDropped:    a.liveDropped.Load(),
		ServedLive:     a.servedLive.Load(),
		ServedRecorded: a.servedRecorded.Load(),
		ServedCache:    a.servedCache.Load(),
	}
}

// LastGood 最近一次有效数据
func (a *Arbiter) LastGood() models.Reading {
	return a.cache.Get()
}

// Package playback 录制数据回放：按顺序读取，读完后从头开始（无限循环）
package playback

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"wisefido-vitals/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrEmpty 数据集为空或不存在，调用方需要与正常数据区分处理
	ErrEmpty = errors.New("recorded dataset is empty")
	// ErrNotFound 数据集不存在（errors.Is(err, ErrEmpty) 为 true）
	ErrNotFound = fmt.Errorf("recorded dataset not found: %w", ErrEmpty)
)

// Loader 加载完整数据集（CSV / XLSX / Postgres）
type Loader interface {
	Load(ctx context.Context) ([]models.RecordedRow, error)
	Name() string
}

// Source 回放数据源
type Source interface {
	Next(ctx context.Context) (models.RecordedRow, error)
}

// Cyclic 循环回放；每次回到开头时重新加载数据集
type Cyclic struct {
	mu     sync.Mutex
	loader Loader
	logger *zap.Logger
	rows   []models.RecordedRow
	pos    int
	cycles uint64
}

func NewCyclic(loader Loader, logger *zap.Logger) *Cyclic {
	return &Cyclic{loader: loader, logger: logger}
}

// Next 返回下一行；数据集为空/不存在时返回 ErrEmpty（或 ErrNotFound）
func (c *Cyclic) Next(ctx context.Context) (models.RecordedRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos >= len(c.rows) {
		if len(c.rows) > 0 {
			c.cycles++
			c.logger.Info("Rewinding recorded dataset",
				zap.String("dataset", c.loader.Name()),
				zap.Uint64("cycles", c.cycles),
			)
		}
		if err := c.reload(ctx); err != nil {
			return models.RecordedRow{}, err
		}
	}

	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

func (c *Cyclic) reload(ctx context.Context) error {
	c.rows = nil
	c.pos = 0

	rows, err := c.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotFound) {
			c.logger.Error("Recorded dataset not found", zap.String("dataset", c.loader.Name()), zap.Error(err))
			return fmt.Errorf("%s: %w", c.loader.Name(), ErrNotFound)
		}
		return fmt.Errorf("failed to load recorded dataset %s: %w", c.loader.Name(), err)
	}
	if len(rows) == 0 {
		c.logger.Warn("Recorded dataset is empty", zap.String("dataset", c.loader.Name()))
		return fmt.Errorf("%s: %w", c.loader.Name(), ErrEmpty)
	}

	c.rows = rows
	return nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrCleared 服务端处于暂停状态
	ErrCleared = errors.New("vitals cleared")
	// ErrNoData 录制数据为空或不存在
	ErrNoData = errors.New("no recorded data")
)

// ackResponse 模式切换 / 读取时的状态响应
type ackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// VitalsClient 生命体征服务客户端（与前端的轮询方式一致）
type VitalsClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewVitalsClient 创建客户端
func NewVitalsClient(baseURL string, timeout time.Duration, logger *zap.Logger) *VitalsClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	return &VitalsClient{
		httpClient: client,
		logger:     logger,
	}
}

// GetReading 读取一次数据，返回数据和来源（live / recorded / cache）
// 暂停时返回 ErrCleared，录制数据不可用时返回包装了 ErrNoData 的错误
func (c *VitalsClient) GetReading(ctx context.Context) (models.Reading, string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/api/v1/vitals/reading")
	if err != nil {
		return models.Reading{}, "", fmt.Errorf("failed to get reading: %w", err)
	}
	if resp.IsError() {
		return models.Reading{}, "", fmt.Errorf("get reading: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}

	var ack ackResponse
	if err := json.Unmarshal(resp.Body(), &ack); err != nil {
		return models.Reading{}, "", fmt.Errorf("failed to decode reading: %w", err)
	}
	if ack.Status == "cleared" {
		return models.Reading{}, "", ErrCleared
	}
	if ack.Error != "" {
		return models.Reading{}, "", fmt.Errorf("%w: %s", ErrNoData, ack.Error)
	}

	var reading models.Reading
	if err := json.Unmarshal(resp.Body(), &reading); err != nil {
		return models.Reading{}, "", fmt.Errorf("failed to decode reading: %w", err)
	}
	return reading, resp.Header().Get("X-Vitals-Source"), nil
}

// EnableLive 切换到实时数据
func (c *VitalsClient) EnableLive(ctx context.Context) (string, error) {
	return c.post(ctx, "/api/v1/vitals/mode/live")
}

// Pause 暂停
func (c *VitalsClient) Pause(ctx context.Context) (string, error) {
	return c.post(ctx, "/api/v1/vitals/mode/pause")
}

// SelectRecorded 切换到录制数据
func (c *VitalsClient) SelectRecorded(ctx context.Context) (string, error) {
	return c.post(ctx, "/api/v1/vitals/mode/recorded")
}

func (c *VitalsClient) post(ctx context.Context, path string) (string, error) {
	var ack ackResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&ack).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", path, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode())
	}

	c.logger.Debug("Mode changed", zap.String("path", path), zap.String("status", ack.Status))
	return ack.Status, nil
}

// Status 传感器是否已连接
func (c *VitalsClient) Status(ctx context.Context) (bool, error) {
	var out struct {
		Connected bool `json:"connected"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/vitals/status")
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("get status: unexpected status %d", resp.StatusCode())
	}
	return out.Connected, nil
}

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"wisefido-vitals/internal/arbiter"
	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/playback"

	"go.uber.org/zap"
)

// ReadingArbiter 数据源仲裁
type ReadingArbiter interface {
	GetReading(ctx context.Context) (models.Reading, models.ReadingSource, error)
	Apply(event models.ModeEvent) error
	Stats() models.ArbiterStats
}

// LinkStatus 传感器连接状态
type LinkStatus interface {
	Connected() bool
	Stats() models.ConnectionStats
}

// SourceHeader 响应头，标明本次数据来源（live / recorded / cache）
const SourceHeader = "X-Vitals-Source"

const clearedMessage = "All values and graphs cleared."

// VitalsHandler 生命体征接口
type VitalsHandler struct {
	arbiter ReadingArbiter
	link    LinkStatus
	logger  *zap.Logger
}

func NewVitalsHandler(a ReadingArbiter, link LinkStatus, logger *zap.Logger) *VitalsHandler {
	return &VitalsHandler{arbiter: a, link: link, logger: logger}
}

// GetReading 前端轮询读取当前数据
// 暂停、录制数据为空/不存在时仍返回 200，前端根据 status / error 字段区分
func (h *VitalsHandler) GetReading(w http.ResponseWriter, r *http.Request) {
	reading, source, err := h.arbiter.GetReading(r.Context())
	switch {
	case err == nil:
		w.Header().Set(SourceHeader, string(source))
		writeJSON(w, http.StatusOK, reading)
	case errors.Is(err, arbiter.ErrCleared):
		writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "message": clearedMessage})
	case errors.Is(err, playback.ErrNotFound):
		writeJSON(w, http.StatusOK, map[string]any{"error": "Recorded dataset not found."})
	case errors.Is(err, playback.ErrEmpty):
		writeJSON(w, http.StatusOK, map[string]any{"error": "Recorded dataset is empty."})
	default:
		h.logger.Error("Failed to get reading", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

// EnableLive 点击 HR：切换到实时数据
func (h *VitalsHandler) EnableLive(w http.ResponseWriter, r *http.Request) {
	if !h.apply(w, models.EventEnableLive) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "live_data_enabled"})
}

// Pause 点击 Temp：暂停并清空实时队列
func (h *VitalsHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if !h.apply(w, models.EventPause) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "message": clearedMessage})
}

// SelectRecorded 点击 SpO2：切换到录制数据
func (h *VitalsHandler) SelectRecorded(w http.ResponseWriter, r *http.Request) {
	if !h.apply(w, models.EventSelectRecorded) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "csv_data_enabled"})
}

func (h *VitalsHandler) apply(w http.ResponseWriter, event models.ModeEvent) bool {
	if err := h.arbiter.Apply(event); err != nil {
		h.logger.Error("Failed to apply mode event", zap.Stringer("event", event), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return false
	}
	return true
}

// Status 传感器是否已连接
func (h *VitalsHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"connected": h.link.Connected()})
}

// Stats 仲裁与连接计数
func (h *VitalsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"arbiter":    h.arbiter.Stats(),
		"connection": h.link.Stats(),
	})
}

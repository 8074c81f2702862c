package models

// ReadingSource 本次返回数据的来源
type ReadingSource string

const (
	SourceLive     ReadingSource = "live"
	SourceRecorded ReadingSource = "recorded"
	SourceCache    ReadingSource = "cache"
)

// ArbiterStats 数据仲裁计数
type ArbiterStats struct {
	Mode           Mode   `json:"mode"`
	QueueLen       int    `json:"queue_len"`
	QueueCapacity  int    `json:"queue_capacity"`
	FramesReceived uint64 `json:"frames_received"`
	DecodeFailures uint64 `json:"decode_failures"`
	LiveDropped    uint64 `json:"live_dropped"`
	ServedLive     uint64 `json:"served_live"`
	ServedRecorded uint64 `json:"served_recorded"`
	ServedCache    uint64 `json:"served_cache"`
}

// ConnectionStats 链路统计
type ConnectionStats struct {
	Connected bool      `json:"connected"`
	State     LinkState `json:"state"`
	Attempts  uint64    `json:"attempts"`
	Sessions  uint64    `json:"sessions"`
	SessionID string    `json:"session_id,omitempty"`
}

// StatusSnapshot 发布到 Redis 的实时状态（短 TTL，不做持久化）
type StatusSnapshot struct {
	DeviceID   string          `json:"device_id"`
	Connection ConnectionStats `json:"connection"`
	Arbiter    ArbiterStats    `json:"arbiter"`
	LastGood   Reading         `json:"last_good"`
	Timestamp  int64           `json:"timestamp"`
}

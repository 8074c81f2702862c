package models

// Mode 数据源模式（仅由 UI 事件修改）
type Mode uint8

const (
	ModeRecordedStreaming Mode = iota // 默认：回放录制数据
	ModeLiveStreaming
	ModePaused
)

func (m Mode) String() string {
	switch m {
	case ModeLiveStreaming:
		return "live"
	case ModeRecordedStreaming:
		return "recorded"
	case ModePaused:
		return "paused"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ModeEvent UI 发起的模式切换事件
type ModeEvent uint8

const (
	EventEnableLive ModeEvent = iota + 1
	EventSelectRecorded
	EventPause
)

func (e ModeEvent) String() string {
	switch e {
	case EventEnableLive:
		return "enable_live"
	case EventSelectRecorded:
		return "select_recorded"
	case EventPause:
		return "pause"
	default:
		return "unknown"
	}
}

// LinkState 传感器链路状态
type LinkState uint8

const (
	LinkDisconnected LinkState = iota
	LinkConnecting
	LinkConnected
)

func (s LinkState) String() string {
	switch s {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s LinkState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

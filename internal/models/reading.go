package models

import (
	"fmt"
)

// DefaultTemperature 体温常量（主链路硬件不上报体温）
const DefaultTemperature = 37.0

// SkinContactStatus 皮肤接触检测（SCD）状态
type SkinContactStatus uint8

const (
	OffSkin SkinContactStatus = iota
	OnSkin
)

const (
	onSkinText  = "On Skin"
	offSkinText = "Off Skin"
)

func (s SkinContactStatus) String() string {
	if s == OnSkin {
		return onSkinText
	}
	return offSkinText
}

// MarshalText 与前端约定的 SCD_status 文本保持一致
func (s SkinContactStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SkinContactStatus) UnmarshalText(text []byte) error {
	v, err := ParseSkinContactStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSkinContactStatus 解析 "On Skin" / "Off Skin"（兼容 OnSkin / OffSkin 写法）
func ParseSkinContactStatus(s string) (SkinContactStatus, error) {
	switch s {
	case onSkinText, "OnSkin", "on_skin":
		return OnSkin, nil
	case offSkinText, "OffSkin", "off_skin":
		return OffSkin, nil
	default:
		return OffSkin, fmt.Errorf("invalid skin contact status: %q", s)
	}
}

// Reading 一帧解码后的生命体征数据
// 所有字段始终有值：要么本帧解码得到，要么继承自上一次缓存
type Reading struct {
	ECG         int32             `json:"ecg"`         // 18 位补码，已做符号扩展
	PPGRed      uint32            `json:"ppg_red"`     // 20 位
	PPGIR       uint32            `json:"ppg_ir"`      // 20 位
	HeartRate   uint8             `json:"heart_rate"`  // bpm
	SpO2        uint8             `json:"SpO2_val"`    // %
	SkinContact SkinContactStatus `json:"SCD_status"`  // On Skin / Off Skin
	Temperature float64           `json:"temperature"` // °C
}

// DefaultReading 启动时缓存的初始值
func DefaultReading() Reading {
	return Reading{
		SkinContact: OffSkin,
		Temperature: DefaultTemperature,
	}
}

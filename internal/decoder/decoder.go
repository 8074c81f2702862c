// Package decoder 解析传感器通知帧
//
// 帧布局（小端）：
//
//	[0:3)  ecg       18 位补码
//	[3:6)  ppg_red   20 位无符号
//	[6:9)  ppg_ir    20 位无符号
//	[9]    heart_rate
//	[14]   spo2
//	[17]   SCD 原始字节（3 == On Skin）
//
// 其余字节保留，不解析。
package decoder

import (
	"errors"
	"fmt"

	"wisefido-vitals/internal/models"
)

const (
	// MinFrameLen ecg/ppg_red/ppg_ir 所需的最小长度
	MinFrameLen = 9

	heartRateOffset   = 9
	spo2Offset        = 14
	skinContactOffset = 17

	skinContactOnSkin = 3

	ecgSignBit      = 0x20000
	ecgNegativeMask = 0x1FFFF
	ecgPositiveMask = 0x3FFFF
	ppgMask         = 0xFFFFF
)

// ErrShortFrame 帧长度不足，无法解码
var ErrShortFrame = errors.New("frame too short")

// Decode 将一帧解码为 Reading
// 出错时返回 previous 原样（调用方仍可直接使用），同时返回错误用于计数
func Decode(raw []byte, previous models.Reading) (r models.Reading, err error) {
	defer func() {
		if p := recover(); p != nil {
			r = previous
			err = fmt.Errorf("decode panic: %v", p)
		}
	}()

	if len(raw) < MinFrameLen {
		return previous, fmt.Errorf("%w: got %d bytes, need %d", ErrShortFrame, len(raw), MinFrameLen)
	}

	r = models.Reading{
		ECG:         DecodeECG(raw[0:3]),
		PPGRed:      uint24(raw[3:6]) & ppgMask,
		PPGIR:       uint24(raw[6:9]) & ppgMask,
		HeartRate:   previous.HeartRate,
		SpO2:        previous.SpO2,
		SkinContact: previous.SkinContact,
		Temperature: models.DefaultTemperature,
	}

	if len(raw) > heartRateOffset {
		r.HeartRate = raw[heartRateOffset]
	}
	if len(raw) > spo2Offset {
		r.SpO2 = raw[spo2Offset]
	}
	// 非 3 的值不代表 Off Skin，只是沿用上一次的状态
	if len(raw) > skinContactOffset && raw[skinContactOffset] == skinContactOnSkin {
		r.SkinContact = models.OnSkin
	}

	return r, nil
}

// DecodeECG 按硬件协议还原 ecg
// 判断第 17 位，负数取反后按 17 位掩码，正数按 18 位掩码（协议如此，不要“修正”）
func DecodeECG(b []byte) int32 {
	v := uint24(b)
	if v&ecgSignBit != 0 {
		return -int32(^v & ecgNegativeMask)
	}
	return int32(v & ecgPositiveMask)
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

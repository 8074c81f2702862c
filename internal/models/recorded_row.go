package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordedRow 录制数据集中的一行（磁盘上为字符串，按字段解析）
type RecordedRow struct {
	Columns []string
	Values  []string
}

// NewRecordedRow 按表头构建一行；多余的值会被忽略，缺少的值视为空
func NewRecordedRow(header []string, values []string) RecordedRow {
	row := RecordedRow{
		Columns: make([]string, len(header)),
		Values:  make([]string, len(header)),
	}
	for i, h := range header {
		row.Columns[i] = strings.TrimSpace(h)
		if i < len(values) {
			row.Values[i] = strings.TrimSpace(values[i])
		}
	}
	return row
}

// Get 按列名取值（大小写不敏感）
func (r RecordedRow) Get(names ...string) (string, bool) {
	for _, name := range names {
		for i, c := range r.Columns {
			if strings.EqualFold(c, name) && r.Values[i] != "" {
				return r.Values[i], true
			}
		}
	}
	return "", false
}

// Reading 把一行解析成 Reading，缺失列取默认值
func (r RecordedRow) Reading() (Reading, error) {
	out := DefaultReading()

	if v, ok := r.Get("ecg"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid ecg %q: %w", v, err)
		}
		out.ECG = int32(n)
	}
	if v, ok := r.Get("ppg_red"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid ppg_red %q: %w", v, err)
		}
		out.PPGRed = uint32(n)
	}
	if v, ok := r.Get("ppg_ir"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid ppg_ir %q: %w", v, err)
		}
		out.PPGIR = uint32(n)
	}
	if v, ok := r.Get("heart_rate"); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid heart_rate %q: %w", v, err)
		}
		out.HeartRate = uint8(n)
	}
	if v, ok := r.Get("SpO2_val", "spo2"); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid spo2 %q: %w", v, err)
		}
		out.SpO2 = uint8(n)
	}
	if v, ok := r.Get("SCD_status", "skin_contact_status"); ok {
		s, err := ParseSkinContactStatus(v)
		if err != nil {
			return Reading{}, err
		}
		out.SkinContact = s
	}
	if v, ok := r.Get("temperature"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Reading{}, fmt.Errorf("invalid temperature %q: %w", v, err)
		}
		out.Temperature = f
	}

	return out, nil
}

package playback

import (
	"context"
	"fmt"

	"wisefido-vitals/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExcelLoader 从 .xlsx 工作表读取录制数据，第一行为表头
type ExcelLoader struct {
	Path  string
	Sheet string // 为空时使用第一个工作表
}

func NewExcelLoader(path, sheet string) *ExcelLoader {
	return &ExcelLoader{Path: path, Sheet: sheet}
}

func (l *ExcelLoader) Name() string {
	if l.Sheet == "" {
		return l.Path
	}
	return l.Path + "#" + l.Sheet
}

func (l *ExcelLoader) Load(ctx context.Context) ([]models.RecordedRow, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet, ErrNotFound)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]models.RecordedRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, models.NewRecordedRow(header, rec))
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}

package playback

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"wisefido-vitals/internal/models"
)

// CSVLoader 第一行为表头
type CSVLoader struct {
	Path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

func (l *CSVLoader) Name() string { return l.Path }

func (l *CSVLoader) Load(ctx context.Context) ([]models.RecordedRow, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// 允许变长行，缺少的列按空值处理
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]models.RecordedRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, models.NewRecordedRow(header, rec))
	}
	return rows, nil
}

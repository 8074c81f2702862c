package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-vitals/internal/models"
	"wisefido-vitals/internal/playback"

	"go.uber.org/zap"
)

// recordedVitalsColumns 与 CSV / XLSX 表头一致，RecordedRow 按列名解析
var recordedVitalsColumns = []string{
	"ecg", "ppg_red", "ppg_ir", "heart_rate", "SpO2_val", "SCD_status", "temperature",
}

// RecordedVitalsRepository 录制数据集仓库（表 recorded_vitals）
type RecordedVitalsRepository struct {
	db      *sql.DB
	logger  *zap.Logger
	dataset string
}

// NewRecordedVitalsRepository 创建录制数据集仓库；dataset 为 Load 使用的数据集名
func NewRecordedVitalsRepository(db *sql.DB, logger *zap.Logger, dataset string) *RecordedVitalsRepository {
	return &RecordedVitalsRepository{
		db:      db,
		logger:  logger,
		dataset: dataset,
	}
}

var _ playback.Loader = (*RecordedVitalsRepository)(nil)

func (r *RecordedVitalsRepository) Name() string {
	return "postgres:recorded_vitals/" + r.dataset
}

// Load 实现 playback.Loader
func (r *RecordedVitalsRepository) Load(ctx context.Context) ([]models.RecordedRow, error) {
	return r.LoadRows(ctx, r.dataset)
}

// LoadRows 按 seq 顺序读取数据集的全部行；NULL 列视为缺失，取默认值
func (r *RecordedVitalsRepository) LoadRows(ctx context.Context, dataset string) ([]models.RecordedRow, error) {
	query := `
		SELECT
			ecg::text,
			ppg_red::text,
			ppg_ir::text,
			heart_rate::text,
			spo2::text,
			scd_status,
			temperature::text
		FROM recorded_vitals
		WHERE dataset = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query recorded vitals: %w", err)
	}
	defer rows.Close()

	var result []models.RecordedRow
	for rows.Next() {
		cols := make([]sql.NullString, len(recordedVitalsColumns))
		dest := make([]interface{}, len(cols))
		for i := range cols {
			dest[i] = &cols[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan recorded vitals: %w", err)
		}

		values := make([]string, len(cols))
		for i, c := range cols {
			if c.Valid {
				values[i] = c.String
			}
		}
		result = append(result, models.NewRecordedRow(recordedVitalsColumns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recorded vitals: %w", err)
	}

	r.logger.Debug("Loaded recorded vitals",
		zap.String("dataset", dataset),
		zap.Int("rows", len(result)),
	)
	return result, nil
}

package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeLoader struct {
	rows  []models.RecordedRow
	err   error
	loads int
}

func (f *fakeLoader) Name() string { return "fake" }

func (f *fakeLoader) Load(ctx context.Context) ([]models.RecordedRow, error) {
	f.loads++
	return f.rows, f.err
}

func row(hr string) models.RecordedRow {
	return models.NewRecordedRow([]string{"heart_rate"}, []string{hr})
}

func TestCyclic_RewindsAfterLastRow(t *testing.T) {
	loader := &fakeLoader{rows: []models.RecordedRow{row("60"), row("61")}}
	src := NewCyclic(loader, zap.NewNop())
	ctx := context.Background()

	var got []string
	for i := 0; i < 5; i++ {
		r, err := src.Next(ctx)
		require.NoError(t, err)
		v, _ := r.Get("heart_rate")
		got = append(got, v)
	}

	assert.Equal(t, []string{"60", "61", "60", "61", "60"}, got)
	assert.Equal(t, 3, loader.loads, "dataset is reloaded on every rewind")
}

func TestCyclic_EmptyDataset(t *testing.T) {
	src := NewCyclic(&fakeLoader{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := src.Next(context.Background())
		require.ErrorIs(t, err, ErrEmpty)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
}

func TestCyclic_MissingDataset(t *testing.T) {
	src := NewCyclic(NewCSVLoader(filepath.Join(t.TempDir(), "missing.csv")), zap.NewNop())

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCyclic_OtherLoadErrorIsNotEmpty(t *testing.T) {
	boom := errors.New("permission denied")
	src := NewCyclic(&fakeLoader{err: boom}, zap.NewNop())

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmpty)
}

func TestCSVLoader_ReadsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Vitals.csv")
	content := "ecg,ppg_red,ppg_ir,heart_rate,SpO2_val,SCD_status,temperature\n" +
		"-120,1000,2000,72,98,On Skin,36.8\n" +
		"15,1001,2001,73,97,Off Skin,36.9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := NewCSVLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r, err := rows[0].Reading()
	require.NoError(t, err)
	assert.Equal(t, int32(-120), r.ECG)
	assert.Equal(t, uint8(72), r.HeartRate)
	assert.Equal(t, uint8(98), r.SpO2)
	assert.Equal(t, models.OnSkin, r.SkinContact)
	assert.InDelta(t, 36.8, r.Temperature, 1e-9)
}

func TestCSVLoader_HeaderOnlyIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Vitals.csv")
	require.NoError(t, os.WriteFile(path, []byte("ecg,ppg_red\n"), 0o644))

	_, err := NewCyclic(NewCSVLoader(path), zap.NewNop()).Next(context.Background())
	require.ErrorIs(t, err, ErrEmpty)
}

func TestExcelLoader_ReadsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ecg", "heart_rate", "SpO2_val"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"7", "64", "99"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"8", "65", "98"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := NewExcelLoader(path, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r, err := rows[1].Reading()
	require.NoError(t, err)
	assert.Equal(t, int32(8), r.ECG)
	assert.Equal(t, uint8(65), r.HeartRate)
	assert.Equal(t, uint8(98), r.SpO2)
}

func TestExcelLoader_UnknownSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := NewExcelLoader(path, "Recorded").Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

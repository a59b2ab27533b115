package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProcessedRecordsMissing(t *testing.T) {
	// 记录文件不存在时按全新状态处理
	records := loadProcessedRecords(filepath.Join(t.TempDir(), "processed_records.json"))
	assert.Empty(t, records)
}

func TestProcessedRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_records.json")

	records := map[string]bool{
		"/media/lesson01.mp4": true,
		"/media/lesson02.mp4": true,
	}
	require.NoError(t, saveProcessedRecords(path, records))

	loaded := loadProcessedRecords(path)
	assert.Equal(t, records, loaded)
}

func TestLoadProcessedRecordsSkipsFalseEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_records.json")

	require.NoError(t, saveProcessedRecords(path, map[string]bool{
		"/media/done.mp4":    true,
		"/media/pending.mp4": false,
	}))

	loaded := loadProcessedRecords(path)
	assert.Equal(t, map[string]bool{"/media/done.mp4": true}, loaded)
}

func TestLoadProcessedRecordsBadJSON(t *testing.T) {
	// 损坏的记录文件不致命，退回空集合
	path := filepath.Join(t.TempDir(), "processed_records.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	records := loadProcessedRecords(path)
	assert.Empty(t, records)
}

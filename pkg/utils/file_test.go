package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	// 文件不存在时返回默认值且不报错
	val, err := LoadJSONFile(path, map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, os.WriteFile(path, []byte(`{"a.mp4": true}`), 0644))

	val, err = LoadJSONFile(path, nil)
	require.NoError(t, err)
	m, ok := val.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, m["a.mp4"])
}

func TestLoadJSONFileBadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0644))

	defaultVal := map[string]interface{}{"fallback": true}
	val, err := LoadJSONFile(path, defaultVal)
	assert.Error(t, err)
	assert.Equal(t, defaultVal, val)
}

func TestMapValueAccessors(t *testing.T) {
	m := map[string]interface{}{
		"backend":   "script",
		"use_gpu":   true,
		"tolerance": 0.05,
		"count":     3,
		"wrong":     []string{"x"},
	}

	assert.Equal(t, "script", GetStringValue(m, "backend", "native"))
	assert.Equal(t, "native", GetStringValue(m, "missing", "native"))
	assert.Equal(t, "native", GetStringValue(m, "use_gpu", "native"))

	assert.True(t, GetBoolValue(m, "use_gpu", false))
	assert.False(t, GetBoolValue(m, "missing", false))
	assert.True(t, GetBoolValue(m, "backend", true))

	assert.Equal(t, 0.05, GetFloat64Value(m, "tolerance", 1.0))
	// 整数也按浮点取出，JSON反序列化外的map常见这种写法
	assert.Equal(t, 3.0, GetFloat64Value(m, "count", 1.0))
	assert.Equal(t, 1.0, GetFloat64Value(m, "wrong", 1.0))
	assert.Equal(t, 1.0, GetFloat64Value(m, "missing", 1.0))
}

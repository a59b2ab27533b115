package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 返回一个目录都指向临时路径的有效配置
func testConfig(t *testing.T) *Config {
	t.Helper()

	config := NewDefaultConfig()
	config.DataDir = filepath.Join(t.TempDir(), "data")
	config.MediaFolder = ""
	return config
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// 验证默认值是否正确设置
	assert.Equal(t, "data", config.DataDir)
	assert.Equal(t, "python3", config.PythonBin)
	assert.Equal(t, "noise_reduction.py", config.ToolDenoise)
	assert.Equal(t, "video_synthesizer.py", config.ToolSynth)
	assert.Equal(t, SynthBackendNative, config.SynthBackend)
	assert.Equal(t, 4, config.MaxWorkers)
	assert.Equal(t, 1.0, config.MinGapSeconds)
	assert.Equal(t, 0.01, config.SpeedTolerance)
	assert.True(t, config.UseGPU)
	assert.False(t, config.ExportSRT)
	assert.Equal(t, 8080, config.Port)
}

func TestConfigValidate(t *testing.T) {
	// 测试有效配置
	config := testConfig(t)
	require.NoError(t, config.Validate())

	// 测试无效的MaxWorkers
	config.MaxWorkers = 0
	err := config.Validate()
	assert.Error(t, err)
	configErr, ok := err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "MaxWorkers", configErr.Field)

	// 恢复有效值并测试另一个字段
	config.MaxWorkers = 4
	config.MinGapSeconds = 10.0
	err = config.Validate()
	assert.Error(t, err)
	configErr, ok = err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "MinGapSeconds", configErr.Field)

	// 未知的合成后端
	config.MinGapSeconds = 1.0
	config.SynthBackend = "magic"
	err = config.Validate()
	assert.Error(t, err)

	// 非法端口
	config.SynthBackend = SynthBackendScript
	config.Port = 0
	assert.Error(t, config.Validate())
}

func TestConfigSaveAndLoad(t *testing.T) {
	config := testConfig(t)
	config.MaxWorkers = 8
	config.UseGPU = false

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.SaveToFile(path))

	loaded := NewDefaultConfig()
	loaded.MediaFolder = ""
	require.NoError(t, loaded.LoadFromFile(path))

	assert.Equal(t, config.DataDir, loaded.DataDir)
	assert.Equal(t, 8, loaded.MaxWorkers)
	assert.False(t, loaded.UseGPU)
}

func TestConfigUpdate(t *testing.T) {
	config := testConfig(t)

	err := config.Update(map[string]interface{}{
		"max_workers": 2,
		"use_gpu":     false,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, config.MaxWorkers)
	assert.False(t, config.UseGPU)

	// 非法更新必须回滚
	err = config.Update(map[string]interface{}{"max_workers": 99})
	assert.Error(t, err)
	assert.Equal(t, 2, config.MaxWorkers)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DUB_DATA_DIR", "/tmp/dub-data")
	t.Setenv("DUB_PORT", "9000")
	t.Setenv("DUB_LOG_LEVEL", "debug")

	config := NewDefaultConfig()
	config.ApplyEnvOverrides()

	assert.Equal(t, "/tmp/dub-data", config.DataDir)
	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestToolPath(t *testing.T) {
	config := NewDefaultConfig()
	config.ToolsDir = "scripts"

	assert.Equal(t, filepath.Join("scripts", "asr.py"), config.ToolPath("asr.py"))

	// 绝对路径原样返回
	abs := filepath.Join(t.TempDir(), "tts.py")
	assert.Equal(t, abs, config.ToolPath(abs))
}

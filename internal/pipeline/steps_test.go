package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

func TestParseStep(t *testing.T) {
	s, err := ParseStep("tts")
	require.NoError(t, err)
	assert.Equal(t, StepTTS, s)

	// 大小写和空白不敏感
	s, err = ParseStep("  Translate ")
	require.NoError(t, err)
	assert.Equal(t, StepTranslate, s)

	_, err = ParseStep("unknown")
	assert.Error(t, err)
}

func TestStepsBetween(t *testing.T) {
	// 全链
	steps, err := StepsBetween(StepPrepare, StepSynth)
	require.NoError(t, err)
	assert.Equal(t, StepOrder, steps)

	// 编辑流程: 先跑到translate
	steps, err = StepsBetween(StepPrepare, StepTranslate)
	require.NoError(t, err)
	assert.Equal(t, []Step{StepPrepare, StepDenoise, StepASR, StepTranslate}, steps)

	// 手工编辑后从tts续跑
	steps, err = StepsBetween(StepTTS, StepSynth)
	require.NoError(t, err)
	assert.Equal(t, []Step{StepTTS, StepSynth}, steps)

	// 单步
	steps, err = StepsBetween(StepASR, StepASR)
	require.NoError(t, err)
	assert.Equal(t, []Step{StepASR}, steps)
}

func TestStepsBetweenInvalid(t *testing.T) {
	_, err := StepsBetween(StepSynth, StepPrepare)
	assert.Error(t, err)

	_, err = StepsBetween(Step("bogus"), StepSynth)
	assert.Error(t, err)

	_, err = StepsBetween(StepPrepare, Step("bogus"))
	assert.Error(t, err)
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	cfg := models.NewDefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.ShowProgress = false
	return cfg
}

func TestRunnerMissingInput(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, filepath.Join(cfg.DataDir, "demo.mp4"), nil)

	// 项目目录里没有原始音频，降噪步骤应报缺少输入
	result := runner.RunSteps(context.Background(), []Step{StepDenoise})
	require.False(t, result.Success)
	assert.Equal(t, string(StepDenoise), result.FailedStep)

	_, _, err := runner.runStep(context.Background(), StepDenoise)
	var stepErr *utils.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, utils.ErrKindMissingInput, stepErr.Kind)
}

func TestRunnerCancelled(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, filepath.Join(cfg.DataDir, "demo.mp4"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := runner.RunSteps(ctx, []Step{StepDenoise, StepASR})
	assert.False(t, result.Success)
	assert.Equal(t, "已取消", result.Error)
	assert.Empty(t, result.Steps)
}

func TestRunnerLayout(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, "/videos/course_01.mp4", nil)

	layout := runner.Layout()
	assert.Equal(t, "course_01", layout.Name)
	assert.Equal(t, filepath.Join(cfg.DataDir, "course_01"), layout.Dir())
}

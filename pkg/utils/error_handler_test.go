package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDubbingError(t *testing.T) {
	cause := errors.New("底层错误")
	err := NewError("操作失败", cause)

	assert.Equal(t, "操作失败: 底层错误", err.Error())
	assert.ErrorIs(t, err, cause)

	// 没有cause时只有消息
	bare := NewError("操作失败", nil)
	assert.Equal(t, "操作失败", bare.Error())
}

func TestStepError(t *testing.T) {
	err := NewStepError("asr", ErrKindMissingInput, "/data/demo/denoised.wav", nil)
	assert.Contains(t, err.Error(), "asr")
	assert.Contains(t, err.Error(), "denoised.wav")

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, ErrKindMissingInput, stepErr.Kind)

	// missing_output 和 tool_failed 各有自己的消息形态
	err = NewStepError("tts", ErrKindMissingOutput, "/data/demo/tts_output/a.wav", nil)
	assert.Contains(t, err.Error(), "未生成预期文件")

	cause := errors.New("exit status 1")
	err = NewStepError("denoise", ErrKindToolFailed, "noise_reduction.py", cause)
	assert.Contains(t, err.Error(), "执行失败")
	assert.ErrorIs(t, err, cause)
}

func TestSafeExecute(t *testing.T) {
	InitLogger(LogLevelQuiet, "")
	handler := NewErrorHandler()

	// 成功时不触发清理
	cleaned := false
	err := handler.SafeExecute("ok_op", func() error { return nil },
		func() { cleaned = true })
	assert.NoError(t, err)
	assert.False(t, cleaned)

	// 失败时执行清理并记录统计
	err = handler.SafeExecute("fail_op", func() error { return errors.New("预期错误") },
		func() { cleaned = true })
	assert.Error(t, err)
	assert.True(t, cleaned)
	assert.Equal(t, 1, handler.ErrorStats["fail_op"]["预期错误"])
}

func TestRecord(t *testing.T) {
	handler := NewErrorHandler()

	handler.Record("op", nil)
	assert.Empty(t, handler.GetErrorStats())

	handler.Record("op", errors.New("错误A"))
	handler.Record("op", errors.New("错误A"))
	handler.Record("op", errors.New("错误B"))

	stats := handler.GetErrorStats()
	assert.Equal(t, 2, stats["op"]["错误A"])
	assert.Equal(t, 1, stats["op"]["错误B"])
}

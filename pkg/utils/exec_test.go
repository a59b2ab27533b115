package utils

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExecutable(t *testing.T) {
	assert.False(t, CheckExecutable("肯定不存在的程序xyz"))
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("依赖POSIX命令")
	}
	require.NoError(t, InitLogger("debug", ""))

	err := RunCommand(context.Background(), "", nil, "echo", "你好")
	assert.NoError(t, err)
}

func TestRunCommandMissingProgram(t *testing.T) {
	require.NoError(t, InitLogger("info", ""))

	err := RunCommand(context.Background(), "", nil, "肯定不存在的程序xyz")
	assert.Error(t, err)
}

func TestRunCommandOverlongLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("依赖POSIX命令")
	}

	logFile := filepath.Join(t.TempDir(), "exec.log")
	require.NoError(t, InitLogger("warn", logFile))

	// 单行超过Scanner默认缓冲上限(64KB)，命令本身仍然成功，
	// 但转发中断要留下警告而不是无声丢失
	longLine := bytes.Repeat([]byte("a"), 100_000)
	input := filepath.Join(t.TempDir(), "long.txt")
	require.NoError(t, os.WriteFile(input, longLine, 0644))

	err := RunCommand(context.Background(), "", nil, "cat", input)
	require.NoError(t, err)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "读取输出失败")
}

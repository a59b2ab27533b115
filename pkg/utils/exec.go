package utils

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CheckExecutable 检查可执行程序是否在PATH中可用
func CheckExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CheckFFmpeg 检查ffmpeg是否可用
func CheckFFmpeg() bool {
	cmd := exec.Command("ffmpeg", "-version")
	err := cmd.Run()
	return err == nil
}

// RunCommand 执行外部命令，子进程输出逐行转发到日志（debug级别）。
// extraEnv 在继承当前环境的基础上追加，ctx取消时子进程被终止。
func RunCommand(ctx context.Context, workDir string, extraEnv []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), extraEnv...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("获取命令输出管道失败: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("获取命令错误管道失败: %w", err)
	}

	Debug("执行命令: %s %s", name, strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动命令失败: %w", err)
	}

	var wg sync.WaitGroup
	forward := func(prefix string, r *bufio.Scanner) {
		defer wg.Done()
		for r.Scan() {
			Debug("[%s] %s", prefix, r.Text())
		}
		// 超长行会让Scanner带错停止，只影响日志转发，不影响命令本身
		if err := r.Err(); err != nil {
			Warn("[%s] 读取输出失败: %v", prefix, err)
		}
	}

	wg.Add(2)
	go forward(name, bufio.NewScanner(stdout))
	go forward(name, bufio.NewScanner(stderr))
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("命令被取消: %w", ctx.Err())
		}
		return fmt.Errorf("命令执行失败: %w", err)
	}

	return nil
}

// RunCommandOutput 执行外部命令并返回其标准输出
func RunCommandOutput(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	Debug("执行命令: %s %s", name, strings.Join(args, " "))

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("命令执行失败: %w, stderr: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("命令执行失败: %w", err)
	}

	return string(output), nil
}

package utils

import (
	"fmt"
)

// DubbingError 是配音工具错误的基础类型
type DubbingError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *DubbingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *DubbingError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的DubbingError
func NewError(message string, cause error) error {
	return &DubbingError{
		Message: message,
		Cause:   cause,
	}
}

// StepErrorKind 流水线步骤错误分类
type StepErrorKind string

const (
	// ErrKindMissingInput 步骤所需的输入文件不存在
	ErrKindMissingInput StepErrorKind = "missing_input"
	// ErrKindMissingOutput 工具执行后未产出预期文件
	ErrKindMissingOutput StepErrorKind = "missing_output"
	// ErrKindToolFailed 外部工具以非零状态退出
	ErrKindToolFailed StepErrorKind = "tool_failed"
)

// StepError 表示流水线某一步骤的失败，携带步骤名和文件路径便于诊断
type StepError struct {
	Step  string
	Kind  StepErrorKind
	Path  string
	Cause error
}

// Error 实现error接口
func (e *StepError) Error() string {
	switch e.Kind {
	case ErrKindMissingInput:
		return fmt.Sprintf("步骤 %s 缺少输入文件: %s", e.Step, e.Path)
	case ErrKindMissingOutput:
		return fmt.Sprintf("步骤 %s 未生成预期文件: %s", e.Step, e.Path)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("步骤 %s 执行失败: %s", e.Step, e.Cause.Error())
		}
		return fmt.Sprintf("步骤 %s 执行失败", e.Step)
	}
}

// Unwrap 支持error chain
func (e *StepError) Unwrap() error {
	return e.Cause
}

// NewStepError 创建步骤错误
func NewStepError(step string, kind StepErrorKind, path string, cause error) error {
	return &StepError{Step: step, Kind: kind, Path: path, Cause: cause}
}

// ErrorHandler 记录各操作的错误并支持带清理的安全执行
type ErrorHandler struct {
	ErrorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		ErrorStats: make(map[string]map[string]int),
	}
}

// SafeExecute 安全地执行函数，并在失败时进行清理
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err != nil {
		h.updateErrorStats(operation, err.Error())

		if cleanup != nil {
			Info("执行清理操作...")
			cleanup()
		}

		return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
	}
	return nil
}

// Record 记录一次失败但不中断流程（用于有降级路径的操作）
func (h *ErrorHandler) Record(operation string, err error) {
	if err == nil {
		return
	}
	h.updateErrorStats(operation, err.Error())
}

// 更新错误统计
func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	if h.ErrorStats[operation] == nil {
		h.ErrorStats[operation] = make(map[string]int)
	}
	h.ErrorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	return h.ErrorStats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	if len(h.ErrorStats) == 0 {
		Info("没有错误记录")
		return
	}

	Info("\n错误统计:")
	for operation, errors := range h.ErrorStats {
		Info("\n操作: %s", operation)
		for errMsg, count := range errors {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}

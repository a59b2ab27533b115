package models

// StepResult 单个流水线步骤的执行结果
type StepResult struct {
	Step       string `json:"step"`        // 步骤名
	Skipped    bool   `json:"skipped"`     // 产物已存在而跳过
	Output     string `json:"output"`      // 步骤产物路径
	DurationMs int64  `json:"duration_ms"` // 执行耗时（毫秒）
}

// PipelineResult 一次流水线运行的汇总
type PipelineResult struct {
	Project       string            `json:"project"`         // 项目名（视频basename）
	VideoPath     string            `json:"video_path"`      // 源视频路径
	Steps         []StepResult      `json:"steps"`           // 各步骤结果
	Success       bool              `json:"success"`         // 是否全部成功
	FailedStep    string            `json:"failed_step"`     // 失败的步骤名
	Error         string            `json:"error"`           // 失败原因
	OutputFiles   map[string]string `json:"output_files"`    // 产出文件路径
	ProcessTimeMs int64             `json:"process_time_ms"` // 总耗时（毫秒）
}

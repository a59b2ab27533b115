package main

import (
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
)

// --- 请求结构体 ---

// IndexRequest 针对单个段落的操作请求
type IndexRequest struct {
	Index int `json:"index"`
}

// TextRequest 修改段落文本的请求
type TextRequest struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// CreateTaskRequest 创建续跑任务的请求。
// Options允许单个任务覆盖部分配置项（synth_backend/use_gpu/
// speed_tolerance/export_srt），不影响服务的全局配置。
type CreateTaskRequest struct {
	Project string                 `json:"project"`
	From    string                 `json:"from"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// --- 响应结构体 ---

// BaseResponse 统一的响应外壳，错误时 {"code": <http状态码>, "msg": "..."}
type BaseResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

type CreateTaskResponse struct {
	BaseResponse
	Data *struct {
		TaskID string `json:"task_id"`
	} `json:"data,omitempty"`
}

type TaskStatusResponse struct {
	BaseResponse
	Data *TaskStatusData `json:"data,omitempty"`
}

// TaskStatusData 任务状态查询结果
type TaskStatusData struct {
	Status  string                 `json:"status"` // PENDING, RUNNING, SUCCESS, FAILED
	Project string                 `json:"project"`
	From    string                 `json:"from"`
	Error   string                 `json:"error,omitempty"`
	Result  *models.PipelineResult `json:"result,omitempty"`
}

// --- 编辑会话视图 ---

// SegmentView 会话中一个段落的展示形式。Text是工作文本（每句一行），
// TimeLabel是格式化好的时间轴区间，TimeFlagged标记start > end的
// 时间异常，只标记不修正。
type SegmentView struct {
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	TimeLabel    string `json:"time_label"`
	OriginalText string `json:"original_text"`
	Text         string `json:"text"`
	TimeFlagged  bool   `json:"time_flagged"`
}

// SessionView 编辑会话的完整视图
type SessionView struct {
	Project       string        `json:"project"`
	TotalSegments int           `json:"total_segments"`
	Dirty         bool          `json:"dirty"`
	Segments      []SegmentView `json:"segments"`
}

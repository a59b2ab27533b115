package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccp-p/video-dubbing-cli/internal/pipeline"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// 任务状态
const (
	TaskPending = "PENDING"
	TaskRunning = "RUNNING"
	TaskSuccess = "SUCCESS"
	TaskFailed  = "FAILED"
)

// 使用 sync.Map 来安全地并发读写
var tasks = sync.Map{}

// Task 一次编辑后续跑流水线的后台任务
type Task struct {
	ID        string
	Project   string
	From      string
	CreatedAt time.Time

	mu       sync.Mutex
	status   string
	errMsg   string
	result   *models.PipelineResult
	doneAt   time.Time
}

func (t *Task) setRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskRunning
}

func (t *Task) finish(result *models.PipelineResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.result = result
	t.doneAt = time.Now()
	switch {
	case err != nil:
		t.status = TaskFailed
		t.errMsg = err.Error()
	case result != nil && !result.Success:
		t.status = TaskFailed
		t.errMsg = fmt.Sprintf("步骤 %s 失败: %s", result.FailedStep, result.Error)
	default:
		t.status = TaskSuccess
	}
}

// Snapshot 取任务状态的一致快照
func (t *Task) Snapshot() TaskStatusData {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TaskStatusData{
		Status:  t.status,
		Project: t.Project,
		From:    t.From,
		Error:   t.errMsg,
		Result:  t.result,
	}
}

func (t *Task) finishedBefore(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != TaskSuccess && t.status != TaskFailed {
		return false
	}
	return t.doneAt.Before(cutoff)
}

// taskConfig 在全局配置的拷贝上应用单个任务的覆盖项。
// 只认识少数几个键，未知键忽略，覆盖后的配置仍要通过验证。
func taskConfig(base *models.Config, opts map[string]interface{}) (*models.Config, error) {
	clone := *base
	if len(opts) == 0 {
		return &clone, nil
	}

	clone.SynthBackend = utils.GetStringValue(opts, "synth_backend", clone.SynthBackend)
	clone.UseGPU = utils.GetBoolValue(opts, "use_gpu", clone.UseGPU)
	clone.SpeedTolerance = utils.GetFloat64Value(opts, "speed_tolerance", clone.SpeedTolerance)
	clone.ExportSRT = utils.GetBoolValue(opts, "export_srt", clone.ExportSRT)

	if err := clone.Validate(); err != nil {
		return nil, fmt.Errorf("任务配置覆盖无效: %w", err)
	}
	return &clone, nil
}

// createResumeTask 创建续跑任务：校对完译文后从指定步骤继续流水线
func createResumeTask(projectID, fromName string, opts map[string]interface{}) (string, error) {
	from, err := pipeline.ParseStep(fromName)
	if err != nil {
		return "", err
	}
	steps, err := pipeline.StepsBetween(from, pipeline.StepSynth)
	if err != nil {
		return "", err
	}

	taskCfg, err := taskConfig(cfg, opts)
	if err != nil {
		return "", err
	}

	layout := project.NewLayout(cfg.DataDir, projectID)
	videoPath, err := layout.FindVideo()
	if err != nil {
		return "", fmt.Errorf("项目 %s 中找不到视频文件: %w", projectID, err)
	}

	task := &Task{
		ID:        uuid.New().String(),
		Project:   projectID,
		From:      string(from),
		CreatedAt: time.Now(),
		status:    TaskPending,
	}
	tasks.Store(task.ID, task)
	utils.Info("创建续跑任务: %s (项目: %s, 起始步骤: %s)", task.ID, projectID, from)

	go runResumeTask(task, taskCfg, videoPath, steps)
	return task.ID, nil
}

// runResumeTask 在后台执行流水线步骤
func runResumeTask(task *Task, taskCfg *models.Config, videoPath string, steps []pipeline.Step) {
	task.setRunning()
	ctx := context.Background()

	if err := pipeline.Preflight(ctx, taskCfg, steps); err != nil {
		utils.Error("任务 %s 环境检查失败: %v", task.ID, err)
		task.finish(nil, err)
		return
	}

	runner := pipeline.NewRunner(taskCfg, videoPath, nil)
	result := runner.RunSteps(ctx, steps)
	task.finish(result, nil)

	if result.Success {
		utils.Info("任务 %s 完成: 项目 %s", task.ID, task.Project)
	} else {
		utils.Error("任务 %s 失败: 步骤 %s: %s", task.ID, result.FailedStep, result.Error)
	}
}

// getTask 获取任务
func getTask(taskID string) (*Task, bool) {
	value, ok := tasks.Load(taskID)
	if !ok {
		return nil, false
	}
	task, ok := value.(*Task)
	return task, ok
}

// startTaskSweeper 定期清理完成已久的任务记录
func startTaskSweeper(interval, retain time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		<-ticker.C
		cutoff := time.Now().Add(-retain)
		tasks.Range(func(key, value interface{}) bool {
			task, ok := value.(*Task)
			if ok && task.finishedBefore(cutoff) {
				tasks.Delete(key)
				utils.Debug("清理已完成任务: %s", key)
			}
			return true
		})
	}
}

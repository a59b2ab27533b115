package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ccp-p/video-dubbing-cli/internal/synth"
	"github.com/ccp-p/video-dubbing-cli/pkg/gpu"
	"github.com/ccp-p/video-dubbing-cli/pkg/media"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/tts"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// Runner 对单个视频执行流水线步骤。
// 每个步骤遵循同一约定：检查输入产物 -> 执行 -> 检查输出产物，首个失败即终止。
type Runner struct {
	cfg       *models.Config
	layout    project.Layout
	videoPath string   // 源视频路径
	extraEnv  []string // 传给外部工具的附加环境变量
}

// NewRunner 创建针对一个视频的执行器
func NewRunner(cfg *models.Config, videoPath string, extraEnv []string) *Runner {
	env := append([]string{}, extraEnv...)
	if cfg.ASRModel != "" {
		env = append(env, "ASR_MODEL_SIZE="+cfg.ASRModel)
	}
	return &Runner{
		cfg:       cfg,
		layout:    project.LayoutForVideo(cfg.DataDir, videoPath),
		videoPath: videoPath,
		extraEnv:  env,
	}
}

// Layout 返回项目目录布局
func (r *Runner) Layout() project.Layout {
	return r.layout
}

// RunSteps 顺序执行给定步骤，返回执行汇总
func (r *Runner) RunSteps(ctx context.Context, steps []Step) *models.PipelineResult {
	result := &models.PipelineResult{
		Project:     r.layout.Name,
		VideoPath:   r.videoPath,
		OutputFiles: make(map[string]string),
	}
	start := time.Now()

	for _, step := range steps {
		if ctx.Err() != nil {
			result.FailedStep = string(step)
			result.Error = "已取消"
			break
		}

		utils.Info("==> 步骤: %s", step)
		stepStart := time.Now()
		output, skipped, err := r.runStep(ctx, step)

		result.Steps = append(result.Steps, models.StepResult{
			Step:       string(step),
			Skipped:    skipped,
			Output:     output,
			DurationMs: time.Since(stepStart).Milliseconds(),
		})

		if err != nil {
			result.FailedStep = string(step)
			result.Error = err.Error()
			utils.Error("步骤 %s 失败: %v", step, err)
			break
		}

		if output != "" {
			result.OutputFiles[string(step)] = output
		}
		utils.Info("步骤 %s 完成 (%s)", step, utils.FormatTimeDuration(time.Since(stepStart).Seconds()))
	}

	result.Success = result.FailedStep == ""
	result.ProcessTimeMs = time.Since(start).Milliseconds()
	return result
}

func (r *Runner) runStep(ctx context.Context, step Step) (string, bool, error) {
	switch step {
	case StepPrepare:
		return r.stepPrepare(ctx)
	case StepDenoise:
		return r.stepDenoise(ctx)
	case StepASR:
		return r.stepASR(ctx)
	case StepTranslate:
		return r.stepTranslate(ctx)
	case StepTTS:
		return r.stepTTS(ctx)
	case StepSynth:
		return r.stepSynth(ctx)
	default:
		return "", false, fmt.Errorf("未知步骤: %s", step)
	}
}

// stepPrepare 建项目目录、复制源视频、提取16kHz单声道原始音频
func (r *Runner) stepPrepare(ctx context.Context) (string, bool, error) {
	if err := utils.EnsureDirExists(r.layout.Dir()); err != nil {
		return "", false, err
	}

	target := r.layout.VideoPath(filepath.Ext(r.videoPath))
	skipped := false
	switch {
	case filepath.Clean(target) == filepath.Clean(r.videoPath), utils.CheckFileExists(target):
		utils.Debug("项目中已存在视频: %s", target)
		skipped = true
	default:
		if err := r.requireInput(StepPrepare, r.videoPath); err != nil {
			return "", false, err
		}
		utils.Info("复制视频: %s -> %s", r.videoPath, target)
		if err := utils.CopyFile(r.videoPath, target); err != nil {
			return "", false, fmt.Errorf("复制视频失败: %w", err)
		}
	}

	audioPath := r.layout.OriginalAudio()
	if utils.CheckFileExists(audioPath) {
		utils.Debug("原始音频已存在: %s", audioPath)
	} else {
		skipped = false
		var hwaccel []string
		if r.cfg.UseGPU {
			hwaccel = gpu.Detect(ctx).HWAccelArgs()
		}
		if err := media.ExtractAudio(ctx, target, audioPath, hwaccel); err != nil {
			return "", false, err
		}
	}

	if err := r.requireOutput(StepPrepare, audioPath); err != nil {
		return "", false, err
	}
	return target, skipped, nil
}

// stepDenoise 调用降噪工具: noise_reduction.py <input> -o <output>
func (r *Runner) stepDenoise(ctx context.Context) (string, bool, error) {
	input := r.layout.OriginalAudio()
	output := r.layout.DenoisedAudio()

	if err := r.requireInput(StepDenoise, input); err != nil {
		return "", false, err
	}

	args := []string{input, "-o", output}
	if !r.cfg.UseGPU {
		args = append(args, "--no-gpu")
	}
	if err := r.runTool(ctx, StepDenoise, r.cfg.ToolDenoise, args...); err != nil {
		return "", false, err
	}

	if err := r.requireOutput(StepDenoise, output); err != nil {
		return "", false, err
	}
	return output, false, nil
}

// stepASR 调用识别工具: asr.py <input> --asr-output <json> --segments-dir <dir>
func (r *Runner) stepASR(ctx context.Context) (string, bool, error) {
	input := r.layout.DenoisedAudio()
	output := r.layout.ASRResults()

	if err := r.requireInput(StepASR, input); err != nil {
		return "", false, err
	}

	args := []string{input, "--asr-output", output, "--segments-dir", r.layout.SegmentsDir()}
	if err := r.runTool(ctx, StepASR, r.cfg.ToolASR, args...); err != nil {
		return "", false, err
	}

	if err := r.requireOutput(StepASR, output); err != nil {
		return "", false, err
	}
	return output, false, nil
}

// stepTranslate 调用翻译工具: translator.py <asr_json> -o <output>
func (r *Runner) stepTranslate(ctx context.Context) (string, bool, error) {
	input := r.layout.ASRResults()
	output := r.layout.TranslatedResults()

	if err := r.requireInput(StepTranslate, input); err != nil {
		return "", false, err
	}

	if err := r.runTool(ctx, StepTranslate, r.cfg.ToolTranslator, input, "-o", output); err != nil {
		return "", false, err
	}

	if err := r.requireOutput(StepTranslate, output); err != nil {
		return "", false, err
	}
	return output, false, nil
}

// stepTTS 调用配音工具: tts.py <json> -r <ref> -o <dir>，前后做对账
func (r *Runner) stepTTS(ctx context.Context) (string, bool, error) {
	input := r.layout.TranslatedResults()
	outputDir := r.layout.TTSOutputDir()

	if err := r.requireInput(StepTTS, input); err != nil {
		return "", false, err
	}

	var doc models.TranslationDoc
	if err := utils.LoadJSONInto(input, &doc); err != nil {
		return "", false, fmt.Errorf("读取翻译结果失败: %w", err)
	}
	if problems := doc.Validate(); len(problems) > 0 {
		for _, p := range problems {
			utils.Warn("翻译结果异常: %s", p)
		}
	}

	// 文本被编辑过的段落对应的旧音频已失效，先清理
	if removed, err := tts.CleanStale(outputDir, &doc); err != nil {
		utils.Warn("清理过期配音文件失败: %v", err)
	} else if len(removed) > 0 {
		utils.Info("清理了 %d 个过期配音文件", len(removed))
	}

	args := []string{input, "-r", r.cfg.ReferenceAudio, "-o", outputDir}
	if err := r.runTool(ctx, StepTTS, r.cfg.ToolTTS, args...); err != nil {
		return "", false, err
	}

	// 每个非空段落都要有对应的配音文件
	verify, err := tts.Verify(outputDir, &doc)
	if err != nil {
		return "", false, fmt.Errorf("配音输出对账失败: %w", err)
	}
	if len(verify.Missing) > 0 {
		first := verify.Missing[0]
		utils.Error("缺少 %d 个配音音频，首个: 段落%d %s", len(verify.Missing), first.Index, first.FileName)
		return "", false, utils.NewStepError(string(StepTTS), utils.ErrKindMissingOutput,
			filepath.Join(outputDir, first.FileName), nil)
	}

	// 文件齐了还要能读：损坏的wav留到合成阶段才暴露就太晚了
	for _, task := range verify.Ready {
		path := filepath.Join(outputDir, task.FileName)
		stats, err := tts.InspectWav(path)
		if err != nil {
			return "", false, utils.NewStepError(string(StepTTS), utils.ErrKindMissingOutput, path, err)
		}
		if stats.Duration <= 0 {
			return "", false, utils.NewStepError(string(StepTTS), utils.ErrKindMissingOutput, path,
				fmt.Errorf("配音音频时长为0"))
		}
		utils.Debug("段落%d 配音就绪: %s (%.2fs, %dHz)",
			task.Index, task.FileName, stats.Duration.Seconds(), stats.SampleRate)
	}
	utils.Info("配音完成: %d 个音频就绪", len(verify.Ready))

	return outputDir, false, nil
}

// stepSynth 合成最终视频，native用内置ffmpeg流程，script走外部工具
func (r *Runner) stepSynth(ctx context.Context) (string, bool, error) {
	videoPath, err := r.layout.FindVideo()
	if err != nil {
		return "", false, utils.NewStepError(string(StepSynth), utils.ErrKindMissingInput, r.layout.Dir(), err)
	}
	ttsDir := r.layout.TTSOutputDir()
	if !utils.CheckDirExists(ttsDir) {
		return "", false, utils.NewStepError(string(StepSynth), utils.ErrKindMissingInput, ttsDir, nil)
	}

	var output string
	switch r.cfg.SynthBackend {
	case models.SynthBackendScript:
		output = r.layout.SynthesizedVideo()
		args := []string{videoPath, "--tts-dir", ttsDir, "--output", output}
		if !r.cfg.UseGPU {
			args = append(args, "--no-gpu")
		}
		if err := r.runTool(ctx, StepSynth, r.cfg.ToolSynth, args...); err != nil {
			return "", false, err
		}
	default:
		output = r.layout.FinalVideo()
		if err := synth.NewSynthesizer(r.cfg).Run(ctx, videoPath, ttsDir, output); err != nil {
			return "", false, utils.NewStepError(string(StepSynth), utils.ErrKindToolFailed, videoPath, err)
		}
	}

	if err := r.requireOutput(StepSynth, output); err != nil {
		return "", false, err
	}
	return output, false, nil
}

// runTool 执行一个外部Python工具
func (r *Runner) runTool(ctx context.Context, step Step, script string, args ...string) error {
	toolPath := r.cfg.ToolPath(script)
	if !utils.CheckFileExists(toolPath) {
		return utils.NewStepError(string(step), utils.ErrKindMissingInput, toolPath, nil)
	}

	argv := append([]string{toolPath}, args...)
	if err := utils.RunCommand(ctx, "", r.extraEnv, r.cfg.PythonBin, argv...); err != nil {
		return utils.NewStepError(string(step), utils.ErrKindToolFailed, toolPath, err)
	}
	return nil
}

func (r *Runner) requireInput(step Step, path string) error {
	if !utils.CheckFileExists(path) {
		return utils.NewStepError(string(step), utils.ErrKindMissingInput, path, nil)
	}
	return nil
}

func (r *Runner) requireOutput(step Step, path string) error {
	if !utils.CheckFileExists(path) {
		return utils.NewStepError(string(step), utils.ErrKindMissingOutput, path, nil)
	}
	return nil
}

package synth

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ccp-p/video-dubbing-cli/internal/ui"
	"github.com/ccp-p/video-dubbing-cli/pkg/gpu"
	"github.com/ccp-p/video-dubbing-cli/pkg/media"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/tts"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// Synthesizer 把配音音频合成回视频。
// 流程分四步：裁剪原视频、调速说话片段、替换配音音轨、标准化拼接。
type Synthesizer struct {
	cfg      *models.Config
	gpu      gpu.Info
	tempDir  string
	errors   *utils.ErrorHandler
	progress *ui.ProgressManager
}

// NewSynthesizer 创建合成器
func NewSynthesizer(cfg *models.Config) *Synthesizer {
	return &Synthesizer{
		cfg:      cfg,
		errors:   utils.NewErrorHandler(),
		progress: ui.NewProgressManager(cfg.ShowProgress),
	}
}

// stagedSegment 某一步处理后的片段文件
type stagedSegment struct {
	Plan SegmentPlan
	Path string
}

// Run 执行完整的合成流程
func (s *Synthesizer) Run(ctx context.Context, videoPath, audioDir, outputPath string) error {
	if !utils.CheckFileExists(videoPath) {
		return utils.NewStepError("合成", utils.ErrKindMissingInput, videoPath, nil)
	}
	if !utils.CheckDirExists(audioDir) {
		return utils.NewStepError("合成", utils.ErrKindMissingInput, audioDir, nil)
	}

	if s.cfg.UseGPU {
		s.gpu = gpu.Detect(ctx)
		s.gpu.Print()
	}

	utils.Info("开始视频合成: %s", filepath.Base(videoPath))

	info, err := media.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	utils.Info("视频时长: %.2f秒 (%.2f分钟)", info.Duration, info.Duration/60)

	clips, err := s.scanClips(ctx, audioDir)
	if err != nil {
		return err
	}

	plans := PlanSegments(clips, info.Duration, s.cfg.MinGapSeconds)
	if len(plans) == 0 {
		return fmt.Errorf("没有可处理的片段")
	}

	// 临时目录放在输出文件同目录下，开始前清空
	s.tempDir = filepath.Join(filepath.Dir(outputPath), "tmp")
	if err := os.RemoveAll(s.tempDir); err != nil {
		return fmt.Errorf("清空临时目录失败: %w", err)
	}
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return fmt.Errorf("创建临时目录失败: %w", err)
	}

	if s.cfg.ShowProgress {
		utils.EnableTerminalProgress()
		defer utils.DisableTerminalProgress()
	}

	utils.Info("步骤1: 裁剪原视频（带音轨）...")
	staged, err := s.cutSegments(ctx, videoPath, plans)
	if err != nil {
		return err
	}
	utils.Info("步骤1完成: 生成了 %d 个片段", len(staged))

	utils.Info("步骤2: 调速说话片段...")
	staged, err = s.adjustSpeeds(ctx, staged)
	if err != nil {
		return err
	}
	utils.Info("步骤2完成")

	utils.Info("步骤3: 替换配音音轨...")
	finalSegments, err := s.replaceAudio(ctx, staged)
	if err != nil {
		return err
	}
	utils.Info("步骤3完成")

	utils.Info("步骤4: 标准化片段并拼接...")
	err = s.errors.SafeExecute("标准化拼接", func() error {
		return s.normalizeConcat(ctx, finalSegments, outputPath)
	}, func() {
		// 拼接中断会留下半成品输出，删掉避免被误认为合成结果
		os.Remove(outputPath)
	})
	if err != nil {
		return err
	}

	if out, err := media.Probe(ctx, outputPath); err == nil {
		utils.Info("合成完成: %s (%.2f秒, %s)", outputPath, out.Duration, utils.FormatFileSize(out.Size))
	}

	if s.cfg.KeepTemp {
		utils.Info("临时文件保留在: %s", s.tempDir)
	} else if err := os.RemoveAll(s.tempDir); err != nil {
		utils.Warn("清理临时目录失败: %v", err)
	}

	if len(s.errors.GetErrorStats()) > 0 {
		s.errors.PrintErrorStats()
	}

	return nil
}

// scanClips 扫描配音音频目录，解析文件名里的时间区间并探测实际时长
func (s *Synthesizer) scanClips(ctx context.Context, audioDir string) ([]ClipInfo, error) {
	entries, err := os.ReadDir(audioDir)
	if err != nil {
		return nil, fmt.Errorf("读取配音音频目录失败: %w", err)
	}

	var clips []ClipInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}
		start, end, ok := tts.ParseOutputName(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(audioDir, entry.Name())
		duration, err := media.Duration(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("获取配音音频时长失败 %s: %w", entry.Name(), err)
		}

		clips = append(clips, ClipInfo{
			FileName:         entry.Name(),
			Path:             path,
			Start:            float64(start) / 1000.0,
			End:              float64(end) / 1000.0,
			OriginalDuration: float64(end-start) / 1000.0,
			NewDuration:      duration,
		})
	}

	if len(clips) == 0 {
		return nil, fmt.Errorf("没有找到有效的配音音频文件: %s", audioDir)
	}

	var totalOriginal, totalNew float64
	for _, c := range clips {
		totalOriginal += c.OriginalDuration
		totalNew += c.NewDuration
	}
	utils.Info("找到 %d 个配音音频: 原始说话总时长 %.2f秒, 配音总时长 %.2f秒 (%.2fx)",
		len(clips), totalOriginal, totalNew, totalNew/totalOriginal)

	return clips, nil
}

// cutSegments 步骤1: 按计划裁剪原视频，间隙和尾部片段换成静音音轨
func (s *Synthesizer) cutSegments(ctx context.Context, videoPath string, plans []SegmentPlan) ([]stagedSegment, error) {
	s.progress.CreateProgressBar("cut", len(plans), "裁剪视频", "")

	var staged []stagedSegment
	for i, plan := range plans {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.progress.UpdateProgressBar("cut", i+1, "")

		switch plan.Kind {
		case SegmentSpeech:
			utils.Debug("说话片段: %.2f-%.2fs", plan.Start, plan.End)
			path := filepath.Join(s.tempDir, fmt.Sprintf("step1_speech_%d.mp4", i))
			if err := s.cutWithAudio(ctx, videoPath, plan.Start, plan.Duration, path); err != nil {
				utils.Error("裁剪说话片段失败，跳过: %v", err)
				s.errors.Record("裁剪说话片段", err)
				continue
			}
			staged = append(staged, stagedSegment{plan, path})

		default:
			utils.Debug("%s片段: %.2f-%.2fs (%.2fs)", plan.Kind, plan.Start, plan.End, plan.Duration)
			raw := filepath.Join(s.tempDir, fmt.Sprintf("step1_%s_%d.mp4", plan.Kind, i))
			if err := s.cutWithAudio(ctx, videoPath, plan.Start, plan.Duration, raw); err != nil {
				utils.Error("裁剪%s片段失败，跳过: %v", plan.Kind, err)
				s.errors.Record("裁剪片段", err)
				continue
			}

			// 换成静音音轨，避免原始音频的格式兼容问题
			silent := filepath.Join(s.tempDir, fmt.Sprintf("step1_%s_%d_silent.mp4", plan.Kind, i))
			if err := s.silenceAudio(ctx, raw, silent, plan.Duration); err != nil {
				utils.Warn("静音化失败，使用原片段: %v", err)
				s.errors.Record("片段静音化", err)
				silent = raw
			}
			staged = append(staged, stagedSegment{plan, silent})
		}
	}
	s.progress.CompleteProgressBar("cut", "完成")

	if len(staged) == 0 {
		return nil, fmt.Errorf("没有成功裁剪的片段")
	}
	return staged, nil
}

// adjustSpeeds 步骤2: 调速说话片段，让画面时长对齐配音时长
func (s *Synthesizer) adjustSpeeds(ctx context.Context, staged []stagedSegment) ([]stagedSegment, error) {
	s.progress.CreateProgressBar("speed", len(staged), "调速处理", "")

	out := make([]stagedSegment, 0, len(staged))
	for i, seg := range staged {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.progress.UpdateProgressBar("speed", i+1, "")

		if seg.Plan.Kind != SegmentSpeech {
			out = append(out, seg)
			continue
		}

		factor := seg.Plan.SpeedFactor()
		if math.Abs(factor-1.0) < s.cfg.SpeedTolerance {
			utils.Debug("说话片段 %d: 无需调速 (%.3fx)", i+1, factor)
			out = append(out, seg)
			continue
		}

		utils.Debug("说话片段 %d: 调速 %.2fx (%.2fs -> %.2fs)",
			i+1, factor, seg.Plan.Duration, seg.Plan.Clip.NewDuration)
		adjusted := filepath.Join(s.tempDir, fmt.Sprintf("step2_speech_speed_%d.mp4", i))
		if err := s.adjustSpeed(ctx, seg.Path, factor, adjusted); err != nil {
			utils.Error("调速失败，使用原片段: %v", err)
			s.errors.Record("片段调速", err)
			out = append(out, seg)
			continue
		}
		out = append(out, stagedSegment{seg.Plan, adjusted})
	}
	s.progress.CompleteProgressBar("speed", "完成")

	return out, nil
}

// replaceAudio 步骤3: 把说话片段的音轨替换成配音音频
func (s *Synthesizer) replaceAudio(ctx context.Context, staged []stagedSegment) ([]string, error) {
	paths := make([]string, 0, len(staged))
	for i, seg := range staged {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if seg.Plan.Kind != SegmentSpeech {
			paths = append(paths, seg.Path)
			continue
		}

		utils.Debug("说话片段 %d: 替换配音音轨 (%.2fs)", i+1, seg.Plan.Clip.NewDuration)
		output := filepath.Join(s.tempDir, fmt.Sprintf("step3_speech_with_tts_%d.mp4", i))
		if err := s.mergeAudioWithVideo(ctx, i, seg.Path, seg.Plan.Clip.Path, output); err != nil {
			return nil, fmt.Errorf("替换配音音轨失败: %w", err)
		}
		paths = append(paths, output)
	}
	return paths, nil
}

// normalizeConcat 步骤4: 并行标准化所有片段后用concat demuxer拼接
func (s *Synthesizer) normalizeConcat(ctx context.Context, segments []string, outputPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("没有有效的片段可拼接")
	}

	normalizedDir := filepath.Join(s.tempDir, "normalized")
	if err := os.MkdirAll(normalizedDir, 0755); err != nil {
		return fmt.Errorf("创建标准化目录失败: %w", err)
	}

	workers := s.cfg.MaxWorkers
	if workers > len(segments) {
		workers = len(segments)
	}
	if workers < 1 {
		workers = 1
	}

	normalized := make([]string, len(segments))
	jobs := make(chan int, len(segments))
	errChan := make(chan error, len(segments))
	progressChan := make(chan struct{}, len(segments))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					errChan <- ctx.Err()
					return
				}
				name := strings.TrimSuffix(filepath.Base(segments[idx]), filepath.Ext(segments[idx]))
				output := filepath.Join(normalizedDir, name+"_normalized.mp4")
				if err := s.normalize(ctx, segments[idx], output); err != nil {
					errChan <- fmt.Errorf("标准化片段失败 %s: %w", filepath.Base(segments[idx]), err)
					return
				}
				normalized[idx] = output
				progressChan <- struct{}{}
			}
		}()
	}

	for i := range segments {
		jobs <- i
	}
	close(jobs)

	s.progress.CreateProgressBar("normalize", len(segments), "标准化片段", "")
	progressDone := make(chan struct{})
	go func() {
		count := 0
		for range progressChan {
			count++
			s.progress.UpdateProgressBar("normalize", count, "")
		}
		close(progressDone)
	}()

	wg.Wait()
	close(progressChan)
	<-progressDone
	close(errChan)
	s.progress.CompleteProgressBar("normalize", "完成")

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	listPath := filepath.Join(s.tempDir, "step4_final_file_list.txt")
	if err := writeConcatList(listPath, normalized); err != nil {
		return fmt.Errorf("写入拼接列表失败: %w", err)
	}

	utils.Debug("拼接 %d 个标准化片段...", len(normalized))
	return s.concatSegments(ctx, listPath, outputPath)
}

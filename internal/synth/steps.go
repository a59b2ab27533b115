package synth

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/media"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// 调速编码预设
const speedPreset = "fast"

// validOutput 检查输出文件是否存在且大小正常
func validOutput(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 1024
}

// hwaccelArgs GPU解码加速参数，配置禁用GPU时为空
func (s *Synthesizer) hwaccelArgs() []string {
	if !s.cfg.UseGPU {
		return nil
	}
	return s.gpu.HWAccelArgs()
}

// encoderArgs 标准化片段用的视频编码参数
func (s *Synthesizer) encoderArgs() []string {
	if !s.cfg.UseGPU {
		return []string{"-c:v", "libx264", "-preset", "ultrafast"}
	}
	return s.gpu.EncoderArgs()
}

// cutWithAudio 从原视频裁剪一个带音轨的片段。
// 先尝试流复制，输出无效时退回重新编码。
func (s *Synthesizer) cutWithAudio(ctx context.Context, input string, start, duration float64, output string) error {
	args := append([]string{}, s.hwaccelArgs()...)
	args = append(args,
		"-i", input,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-c:v", "copy",
		"-c:a", "copy",
		"-avoid_negative_ts", "1",
		output,
	)

	if err := media.RunFFmpeg(ctx, args...); err == nil && validOutput(output) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// 复制模式失败，重新编码
	utils.Warn("复制模式裁剪失败，重新编码: %s", filepath.Base(output))
	args = []string{
		"-i", input,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(math.Max(duration, 0.1)),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-c:a", "aac",
		"-avoid_negative_ts", "1",
		"-pix_fmt", "yuv420p",
		output,
	}
	if err := media.RunFFmpeg(ctx, args...); err != nil {
		return fmt.Errorf("重新编码裁剪失败: %w", err)
	}
	if !validOutput(output) {
		return fmt.Errorf("重新编码后输出仍然无效: %s", output)
	}
	return nil
}

// silenceAudio 把片段的音轨换成22050Hz单声道静音（与配音音频格式一致）
func (s *Synthesizer) silenceAudio(ctx context.Context, input, output string, duration float64) error {
	return media.RunFFmpeg(ctx,
		"-i", input,
		"-f", "lavfi", "-i", "anullsrc=channel_layout=mono:sample_rate=22050",
		"-c:v", "copy",
		"-c:a", "aac",
		"-ar", "22050",
		"-ac", "1",
		"-b:a", "128k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", formatSeconds(duration),
		"-shortest",
		output,
	)
}

// adjustSpeed 同时调整片段的视频和音频速度
func (s *Synthesizer) adjustSpeed(ctx context.Context, input string, factor float64, output string) error {
	filter := fmt.Sprintf("[0:v]setpts=%.6f*PTS[v];[0:a]atempo=%.6f[a]", 1/factor, factor)
	base := []string{
		"-i", input,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "[a]",
		"-c:v", "libx264",
		"-preset", speedPreset,
		"-crf", "23",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		output,
	}

	// 滤镜与硬件编码器不兼容，GPU只用于解码
	if hwaccel := s.hwaccelArgs(); len(hwaccel) > 0 {
		if err := media.RunFFmpeg(ctx, append(append([]string{}, hwaccel...), base...)...); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		utils.Warn("GPU解码失败，尝试纯CPU模式...")
	}

	return media.RunFFmpeg(ctx, base...)
}

// mergeAudioWithVideo 两步法替换音轨：1)提取纯视频 2)合并配音音频，确保输出只有一个音频流
func (s *Synthesizer) mergeAudioWithVideo(ctx context.Context, index int, videoPath, audioPath, output string) error {
	if !utils.CheckFileExists(videoPath) {
		return utils.NewStepError("替换音轨", utils.ErrKindMissingInput, videoPath, nil)
	}
	if !utils.CheckFileExists(audioPath) {
		return utils.NewStepError("替换音轨", utils.ErrKindMissingInput, audioPath, nil)
	}

	videoDuration, err := media.Duration(ctx, videoPath)
	if err != nil {
		return err
	}
	audioDuration, err := media.Duration(ctx, audioPath)
	if err != nil {
		return err
	}
	utils.Debug("视频时长: %.2fs, 配音音频时长: %.2fs", videoDuration, audioDuration)

	// 步骤1: 提取纯视频（无音频）
	pureVideo := filepath.Join(s.tempDir, fmt.Sprintf("pure_video_%d.mp4", index))
	if err := media.RunFFmpeg(ctx, "-i", videoPath, "-c:v", "copy", "-an", pureVideo); err != nil {
		return fmt.Errorf("提取纯视频失败: %w", err)
	}

	// 步骤2: 把配音音频处理到与视频等长
	processedAudio := audioPath
	switch {
	case audioDuration > videoDuration:
		utils.Debug("配音音频比视频长 %.2fs，截断", audioDuration-videoDuration)
		processedAudio = filepath.Join(s.tempDir, fmt.Sprintf("processed_audio_%d.aac", index))
		err = media.RunFFmpeg(ctx,
			"-i", audioPath,
			"-c:a", "aac", "-ac", "1", "-b:a", "128k",
			"-t", formatSeconds(videoDuration),
			processedAudio,
		)
	case audioDuration < videoDuration-0.1:
		utils.Debug("配音音频比视频短 %.2fs，填充静音", videoDuration-audioDuration)
		processedAudio = filepath.Join(s.tempDir, fmt.Sprintf("processed_audio_%d.aac", index))
		err = media.RunFFmpeg(ctx,
			"-i", audioPath,
			"-c:a", "aac", "-ac", "1", "-b:a", "128k",
			"-filter_complex", fmt.Sprintf("apad=pad_dur=%s", formatSeconds(videoDuration-audioDuration)),
			"-t", formatSeconds(videoDuration),
			processedAudio,
		)
	}
	if err != nil {
		return fmt.Errorf("处理配音音频失败: %w", err)
	}

	// 步骤3: 合并纯视频和处理后的配音音频
	err = media.RunFFmpeg(ctx,
		"-i", pureVideo,
		"-i", processedAudio,
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", formatSeconds(videoDuration),
		output,
	)
	if err != nil {
		return fmt.Errorf("合并音视频失败: %w", err)
	}

	return s.verifyMerged(ctx, output)
}

// verifyMerged 校验合并结果：恰好1视频流+1音频流，时长偏差超过0.1秒只告警
func (s *Synthesizer) verifyMerged(ctx context.Context, path string) error {
	if !validOutput(path) {
		return fmt.Errorf("输出文件无效: %s", path)
	}

	info, err := media.Probe(ctx, path)
	if err != nil {
		utils.Warn("无法校验合并结果: %v", err)
		return nil
	}

	if info.VideoStreams != 1 || info.AudioStreams != 1 {
		return fmt.Errorf("流数量异常: 预期1视频+1音频，实际%d视频+%d音频",
			info.VideoStreams, info.AudioStreams)
	}

	if info.VideoDuration > 0 && info.AudioDuration > 0 {
		diff := math.Abs(info.VideoDuration - info.AudioDuration)
		if diff > 0.1 {
			utils.Warn("音视频时长不匹配: 视频%.2fs, 音频%.2fs, 差异%.2fs",
				info.VideoDuration, info.AudioDuration, diff)
		} else {
			utils.Debug("音视频时长匹配: 视频%.2fs, 音频%.2fs", info.VideoDuration, info.AudioDuration)
		}
	}

	return nil
}

// normalize 统一片段的视频编码、帧率、音频格式，保证拼接时流参数一致
func (s *Synthesizer) normalize(ctx context.Context, input, output string) error {
	args := []string{"-i", input}
	args = append(args, s.encoderArgs()...)
	args = append(args,
		"-r", "30",
		"-c:a", "aac",
		"-ar", "22050",
		"-ac", "1",
		"-b:a", "128k",
		"-pix_fmt", "yuv420p",
		"-avoid_negative_ts", "1",
		output,
	)
	return media.RunFFmpeg(ctx, args...)
}

// concatSegments 用concat demuxer拼接标准化后的片段，copy失败时重新编码
func (s *Synthesizer) concatSegments(ctx context.Context, listPath, output string) error {
	err := media.RunFFmpeg(ctx,
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		output,
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	utils.Warn("copy模式拼接失败，重新编码...")
	return media.RunFFmpeg(ctx,
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", speedPreset,
		"-crf", "23",
		"-c:a", "aac",
		"-ar", "22050",
		"-ac", "1",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-pix_fmt", "yuv420p",
		output,
	)
}

// writeConcatList 生成concat demuxer的文件列表（绝对路径）
func writeConcatList(listPath string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		b.WriteString(fmt.Sprintf("file '%s'\n", abs))
	}
	return os.WriteFile(listPath, []byte(b.String()), 0644)
}

// formatSeconds 格式化秒数给ffmpeg参数用
func formatSeconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

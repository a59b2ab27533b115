package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/ccp-p/video-dubbing-cli/internal/pipeline"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

var (
	configFile = flag.String("config", "", "配置文件路径")
	logLevel   = flag.String("log-level", "info", "日志级别 (debug, info, warn, error)")
	logFile    = flag.String("log-file", "", "日志文件路径")
	dataDir    = flag.String("data", "", "项目数据根目录，覆盖配置文件")
	mediaDir   = flag.String("media", "", "批量/监听模式的视频来源目录，覆盖配置文件")
	fromStep   = flag.String("from", "prepare", "起始步骤")
	untilStep  = flag.String("until", "synth", "结束步骤")
	listSteps  = flag.Bool("list-steps", false, "列出所有流水线步骤后退出")
	batchMode  = flag.Bool("batch", false, "批量处理媒体目录中的所有视频")
	watchMode  = flag.Bool("watch", false, "监听媒体目录，新视频落盘后自动处理")
	statusMode = flag.Bool("status", false, "显示各项目的阶段状态后退出")
	noGPU      = flag.Bool("no-gpu", false, "禁用硬件编码器")
	backend    = flag.String("synth-backend", "", "视频合成后端 (native/script)，覆盖配置文件")
	exportSRT  = flag.Bool("srt", false, "流水线完成后导出SRT字幕和双语文本")
)

func main() {
	os.Exit(run())
}

// run 返回进程退出码，保证defer的清理在退出前执行
func run() int {
	// 解析命令行参数
	flag.Parse()

	if *listSteps {
		fmt.Println("流水线步骤（按执行顺序）:")
		fmt.Println("  " + pipeline.StepNames())
		return 0
	}

	// 打印欢迎信息
	printWelcome()

	// 创建流水线控制器
	ctrl, err := pipeline.NewController(*configFile, *logLevel, *logFile)
	if err != nil {
		fmt.Printf("初始化控制器失败: %v\n", err)
		return 1
	}
	defer ctrl.Cleanup()

	applyFlagOverrides(ctrl.Config)

	if *statusMode {
		return printStatus(ctrl.Config)
	}

	from, err := pipeline.ParseStep(*fromStep)
	if err != nil {
		color.Red("%v", err)
		return 1
	}
	until, err := pipeline.ParseStep(*untilStep)
	if err != nil {
		color.Red("%v", err)
		return 1
	}

	switch {
	case *watchMode:
		if err := ctrl.StartWatchMode(from, until); err != nil {
			color.Red("监听模式失败: %v", err)
			return 1
		}
		ctrl.PrintStats()
		return 0

	case *batchMode:
		_, err := ctrl.ProcessMediaFolder(from, until)
		ctrl.PrintStats()
		if err != nil {
			color.Red("批量处理失败: %v", err)
			return 1
		}
		if ctrl.Stats.FailedFiles > 0 {
			return 1
		}
		return 0

	default:
		videoPath := flag.Arg(0)
		if videoPath == "" {
			color.Red("用法: dubproc [选项] <视频文件>")
			fmt.Println("或使用 -batch / -watch / -status / -list-steps，详见 -h")
			return 1
		}
		return processOne(ctrl, videoPath, from, until)
	}
}

// processOne 处理单个视频并打印结果
func processOne(ctrl *pipeline.Controller, videoPath string, from, until pipeline.Step) int {
	result, err := ctrl.ProcessVideo(videoPath, from, until)
	if err != nil {
		color.Red("处理失败: %v", err)
		return 1
	}

	if !result.Success {
		color.Red("\n处理失败: 步骤 %s: %s", result.FailedStep, result.Error)
		return 1
	}

	color.Green("\n处理完成: %s", result.Project)
	for _, step := range result.Steps {
		mark := "✓"
		if step.Skipped {
			mark = "-"
		}
		fmt.Printf("  %s %-10s %s\n", mark, step.Step, step.Output)
	}
	fmt.Printf("处理用时: %s\n", utils.FormatTimeDuration(float64(result.ProcessTimeMs)/1000))
	return 0
}

// applyFlagOverrides 命令行参数优先于配置文件
func applyFlagOverrides(cfg *models.Config) {
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *mediaDir != "" {
		cfg.MediaFolder = *mediaDir
	}
	if *backend != "" {
		cfg.SynthBackend = *backend
	}
	if *noGPU {
		cfg.UseGPU = false
	}
	if *exportSRT {
		cfg.ExportSRT = true
	}
}

// printStatus 列出数据目录下各项目的阶段产物情况
func printStatus(cfg *models.Config) int {
	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		color.Red("读取数据目录失败: %v", err)
		return 1
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Printf("数据目录中没有项目: %s\n", cfg.DataDir)
		return 0
	}

	fmt.Printf("数据目录: %s\n\n", cfg.DataDir)
	for _, name := range names {
		st := project.Inspect(project.NewLayout(cfg.DataDir, name))
		color.Cyan("%s", name)
		printStage("视频", st.HasVideo)
		printStage("降噪音频", st.HasDenoised)
		printStage("识别结果", st.HasASR)
		printStage("翻译结果", st.HasTranslation)
		if st.TTSCount > 0 {
			color.Green("  ✓ 配音音频 (%d 个)", st.TTSCount)
		} else {
			color.Red("  ✗ 配音音频")
		}
		printStage("合成视频", st.HasFinal || st.HasSynthesized)
		fmt.Println()
	}
	return 0
}

func printStage(label string, ok bool) {
	if ok {
		color.Green("  ✓ %s", label)
	} else {
		color.Red("  ✗ %s", label)
	}
}

func printWelcome() {
	// 使用彩色输出打印欢迎信息
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   视频配音流水线 - Go 实现版本   ")
	color.Cyan("================================")
	fmt.Println()
}

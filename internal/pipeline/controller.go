package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/ccp-p/video-dubbing-cli/internal/ui"
	"github.com/ccp-p/video-dubbing-cli/internal/watcher"
	"github.com/ccp-p/video-dubbing-cli/pkg/export"
	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/scanner"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// 已处理记录文件，放在数据根目录下
const processedRecordFile = "processed_records.json"

// Controller 流水线控制器，协调配置、环境检查、单个/批量/监听三种运行方式
type Controller struct {
	// 配置
	Config *models.Config

	// UI组件
	ProgressManager *ui.ProgressManager

	// 上下文控制
	ctx        context.Context
	cancelFunc context.CancelFunc

	// 状态数据
	Stats struct {
		StartTime       time.Time
		TotalFiles      int
		SuccessfulFiles int
		FailedFiles     int
	}

	// 已处理的视频，监听模式下避免重复触发
	processed map[string]bool

	// 资源管理
	cleanup []func()
	mu      sync.Mutex
}

// NewController 创建流水线控制器
func NewController(configFile string, logLevel string, logFile string) (*Controller, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		Config:     models.NewDefaultConfig(),
		ctx:        ctx,
		cancelFunc: cancel,
		processed:  make(map[string]bool),
	}

	// 初始化日志
	if err := utils.InitLogger(logLevel, logFile); err != nil {
		cancel()
		return nil, fmt.Errorf("初始化日志失败: %v", err)
	}

	// 加载配置
	if configFile != "" {
		if err := c.Config.LoadFromFile(configFile); err != nil {
			utils.Warn("配置加载失败: %v，将使用默认配置", err)
		}
	}
	c.Config.ApplyEnvOverrides()

	// 已处理记录跨进程保留，重启后批量/监听模式不重复处理
	c.processed = loadProcessedRecords(c.recordPath())

	// .env里通常放DASHSCOPE_API_KEY，加载后子进程自动继承
	if err := godotenv.Load(); err == nil {
		utils.Debug("已加载.env文件")
	}

	// 日志初始化后再创建ProgressManager
	c.ProgressManager = ui.NewProgressManager(c.Config.ShowProgress)

	// 注册信号处理
	c.setupSignalHandlers()

	return c, nil
}

// Context 返回控制器的上下文
func (c *Controller) Context() context.Context {
	return c.ctx
}

// ProcessVideo 对单个视频执行[from, until]区间的流水线步骤
func (c *Controller) ProcessVideo(videoPath string, from, until Step) (*models.PipelineResult, error) {
	steps, err := StepsBetween(from, until)
	if err != nil {
		return nil, err
	}

	if err := Preflight(c.ctx, c.Config, steps); err != nil {
		return nil, fmt.Errorf("环境检查失败: %w", err)
	}

	runner := NewRunner(c.Config, videoPath, nil)
	result := runner.RunSteps(c.ctx, steps)

	if result.Success && c.Config.ExportSRT && utils.CheckFileExists(runner.Layout().TranslatedResults()) {
		c.exportSubtitles(runner.Layout())
	}

	c.updateStats(result)
	return result, nil
}

// ProcessMediaFolder 扫描媒体目录，对每个未处理过的视频执行流水线
func (c *Controller) ProcessMediaFolder(from, until Step) ([]*models.PipelineResult, error) {
	c.Stats.StartTime = time.Now()

	videoScanner := scanner.NewVideoScanner(c.Config.MediaFolder)
	files, err := videoScanner.ScanDirectory()
	if err != nil {
		return nil, fmt.Errorf("扫描媒体目录失败: %w", err)
	}

	files = videoScanner.FilterNewFiles(files, c.processed)
	if len(files) == 0 {
		utils.Info("媒体目录中没有待处理的视频: %s", c.Config.MediaFolder)
		return nil, nil
	}

	utils.Info("发现 %d 个待处理视频", len(files))

	var results []*models.PipelineResult
	for i, file := range files {
		if c.ctx.Err() != nil {
			utils.Warn("批量处理被中断")
			break
		}

		c.batchProgressCallback(i+1, len(files), file.Name, nil)

		result, err := c.ProcessVideo(file.Path, from, until)
		if err != nil {
			// 环境或参数问题，后续文件也会遇到，直接终止
			return results, err
		}

		c.markProcessed(file.Path)
		results = append(results, result)
		c.batchProgressCallback(i+1, len(files), file.Name, result)
	}

	return results, nil
}

// StartWatchMode 监听媒体目录，新视频落盘后自动执行流水线
func (c *Controller) StartWatchMode(from, until Step) error {
	if c.Config.MediaFolder == "" {
		return fmt.Errorf("监听模式需要配置媒体目录")
	}
	if err := os.MkdirAll(c.Config.MediaFolder, 0755); err != nil {
		return fmt.Errorf("创建媒体目录失败: %w", err)
	}

	// 先处理目录里已有的视频
	if _, err := c.ProcessMediaFolder(from, until); err != nil {
		return err
	}

	stopMonitor, err := watcher.StartVideoMonitoring(c.Config.MediaFolder, watcher.HandlerFunc(func(path string) {
		if c.isProcessed(path) {
			utils.Debug("视频已处理过，跳过: %s", path)
			return
		}

		utils.Info("检测到新视频: %s", filepath.Base(path))
		result, err := c.ProcessVideo(path, from, until)
		if err != nil {
			utils.Error("处理新视频失败: %v", err)
			return
		}
		c.markProcessed(path)
		c.printResult(result)
	}))
	if err != nil {
		return err
	}
	c.addCleanup(stopMonitor)

	utils.Info("监听已启动，按Ctrl+C退出...")
	return c.waitForTermination()
}

// batchProgressCallback 批量处理的进度输出。result为nil表示开始处理
func (c *Controller) batchProgressCallback(current, total int, filename string, result *models.PipelineResult) {
	if result == nil {
		fmt.Printf("\n[%d/%d] 开始处理: %s\n", current, total, filename)
		return
	}

	if result.Success {
		color.Green("\n[%d/%d] 处理成功: %s", current, total, filename)
		for step, output := range result.OutputFiles {
			fmt.Printf("  %s: %s\n", step, output)
		}
		fmt.Printf("处理用时: %s\n", utils.FormatTimeDuration(float64(result.ProcessTimeMs)/1000))
	} else {
		color.Red("\n[%d/%d] 处理失败: %s - 步骤 %s: %s",
			current, total, filename, result.FailedStep, result.Error)
	}
}

// printResult 打印单个处理结果
func (c *Controller) printResult(result *models.PipelineResult) {
	if result.Success {
		color.Green("处理成功: %s (用时 %s)", result.Project,
			utils.FormatTimeDuration(float64(result.ProcessTimeMs)/1000))
	} else {
		color.Red("处理失败: %s - 步骤 %s: %s", result.Project, result.FailedStep, result.Error)
	}
}

// exportSubtitles 从翻译结果导出SRT和双语文本
func (c *Controller) exportSubtitles(layout project.Layout) {
	var doc models.TranslationDoc
	if err := utils.LoadJSONInto(layout.TranslatedResults(), &doc); err != nil {
		utils.Warn("读取翻译结果失败，跳过字幕导出: %v", err)
		return
	}

	srtPath := filepath.Join(layout.Dir(), layout.Name+".srt")
	if err := export.ExportSRT(&doc, srtPath); err != nil {
		utils.Warn("导出SRT失败: %v", err)
	} else {
		utils.Info("已导出字幕: %s", srtPath)
	}

	txtPath := filepath.Join(layout.Dir(), layout.Name+"_bilingual.txt")
	if err := export.ExportBilingualText(&doc, txtPath); err != nil {
		utils.Warn("导出双语文本失败: %v", err)
	} else {
		utils.Info("已导出双语文本: %s", txtPath)
	}
}

// PrintStats 打印累计统计
func (c *Controller) PrintStats() {
	if c.Stats.TotalFiles == 0 {
		return
	}

	fmt.Println()
	color.Cyan("===== 处理统计 (%s) =====", utils.GetCurrentTimeString())
	fmt.Printf("总计: %d, 成功: %d, 失败: %d\n",
		c.Stats.TotalFiles, c.Stats.SuccessfulFiles, c.Stats.FailedFiles)
	if !c.Stats.StartTime.IsZero() {
		fmt.Printf("总用时: %s\n", utils.FormatChineseTimeDuration(time.Since(c.Stats.StartTime).Seconds()))
	}
}

// recordPath 已处理记录文件的位置
func (c *Controller) recordPath() string {
	return filepath.Join(c.Config.DataDir, processedRecordFile)
}

// loadProcessedRecords 从记录文件恢复已处理视频集合，文件不存在时为空集合
func loadProcessedRecords(path string) map[string]bool {
	records := make(map[string]bool)

	raw, err := utils.LoadJSONFile(path, map[string]interface{}{})
	if err != nil {
		utils.Warn("读取已处理记录失败，按全新状态处理: %v", err)
		return records
	}

	if m, ok := raw.(map[string]interface{}); ok {
		for key := range m {
			if utils.GetBoolValue(m, key, false) {
				records[key] = true
			}
		}
	}
	return records
}

// saveProcessedRecords 持久化已处理视频集合
func saveProcessedRecords(path string, records map[string]bool) error {
	return utils.SaveJSONFile(path, records)
}

func (c *Controller) markProcessed(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed[path] = true

	if err := saveProcessedRecords(c.recordPath(), c.processed); err != nil {
		utils.Warn("保存已处理记录失败: %v", err)
	}
}

func (c *Controller) isProcessed(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processed[path]
}

// 添加清理函数
func (c *Controller) addCleanup(cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup = append(c.cleanup, cleanup)
}

// Cleanup 逆序执行所有清理函数
func (c *Controller) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil

	if c.ProgressManager != nil {
		c.ProgressManager.CloseAll("已完成")
	}

	// 恢复日志设置
	utils.DisableTerminalProgress()
}

// 设置中断处理
func (c *Controller) setupSignalHandlers() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		utils.Info("接收到中断信号，正在停止...")
		c.cancelFunc()
	}()
}

// 等待终止信号
func (c *Controller) waitForTermination() error {
	<-c.ctx.Done()
	return nil
}

// 统计处理结果
func (c *Controller) updateStats(result *models.PipelineResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Stats.TotalFiles++
	if result.Success {
		c.Stats.SuccessfulFiles++
	} else {
		c.Stats.FailedFiles++
	}
}

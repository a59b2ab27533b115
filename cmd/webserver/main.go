package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

var (
	configFile = flag.String("config", "", "配置文件路径")
	logLevel   = flag.String("log-level", "info", "日志级别 (debug, info, warn, error)")
	logFile    = flag.String("log-file", "", "日志文件路径")
	dataDir    = flag.String("data", "", "项目数据根目录，覆盖配置文件")
	port       = flag.Int("port", 0, "服务端口，覆盖配置文件")
)

// 全局配置和项目仓库，handler直接使用
var (
	cfg   *models.Config
	store project.Store
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 初始化日志
	if err := utils.InitLogger(*logLevel, *logFile); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印欢迎信息
	printWelcome()

	// 加载配置
	cfg = models.NewDefaultConfig()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			utils.Warn("配置加载失败: %v，将使用默认配置", err)
		}
	}
	cfg.ApplyEnvOverrides()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *port != 0 {
		cfg.Port = *port
	}

	// .env里的DASHSCOPE_API_KEY等会传给续跑任务的子进程
	if err := godotenv.Load(); err == nil {
		utils.Debug("已加载.env文件")
	}

	if err := utils.EnsureDirExists(cfg.DataDir); err != nil {
		utils.Fatal("创建数据目录失败: %v", err)
	}
	store = project.NewFSStore(cfg.DataDir)

	// 启动定时清理任务
	go startTaskSweeper(10*time.Minute, time.Hour)

	// 设置路由
	r := newRouter()

	// 启动服务器
	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	utils.Info("编辑服务启动在 %s，数据目录: %s", serverAddr, cfg.DataDir)
	utils.Info("请在浏览器中打开 http://localhost%s", serverAddr)
	if err := http.ListenAndServe(serverAddr, r); err != nil {
		utils.Fatal("服务器启动失败: %v", err)
	}
}

// newRouter 注册全部路由
func newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", handleHealth).Methods("GET")
	r.HandleFunc("/api/files", handleListFiles).Methods("GET")
	r.HandleFunc("/api/file/{id}/export", handleExportFile).Methods("GET")
	r.HandleFunc("/api/file/{id}", handleGetFile).Methods("GET")
	r.HandleFunc("/api/file/{id}", handlePutFile).Methods("PUT")

	r.HandleFunc("/api/session/{id}/open", handleSessionOpen).Methods("POST")
	r.HandleFunc("/api/session/{id}/merge", handleSessionMerge).Methods("POST")
	r.HandleFunc("/api/session/{id}/delete", handleSessionDelete).Methods("POST")
	r.HandleFunc("/api/session/{id}/reset", handleSessionReset).Methods("POST")
	r.HandleFunc("/api/session/{id}/text", handleSessionText).Methods("POST")
	r.HandleFunc("/api/session/{id}/save", handleSessionSave).Methods("POST")
	r.HandleFunc("/api/session/{id}", handleSessionGet).Methods("GET")

	r.HandleFunc("/api/tasks", handleCreateTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}", handleGetTask).Methods("GET")
	r.HandleFunc("/api/tasks/{id}", handleDeleteTask).Methods("DELETE")

	r.HandleFunc("/", handleIndex).Methods("GET")

	return r
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   翻译编辑服务 - Go 实现版本   ")
	color.Cyan("================================")
	fmt.Println()
}

package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccp-p/video-dubbing-cli/pkg/project"
)

// VideoFile 表示一个待处理的视频文件
type VideoFile struct {
	Path    string    // 文件路径
	Name    string    // 文件名
	Ext     string    // 文件扩展名
	Size    int64     // 文件大小（字节）
	ModTime time.Time // 修改时间
}

// VideoScanner 扫描目录中的视频文件
type VideoScanner struct {
	Folder string
}

// NewVideoScanner 创建视频扫描器
func NewVideoScanner(folder string) *VideoScanner {
	return &VideoScanner{Folder: folder}
}

// ScanDirectory 扫描目录中的视频文件（非递归），按修改时间升序返回
func (s *VideoScanner) ScanDirectory() ([]VideoFile, error) {
	logrus.Infof("开始扫描目录: %s", s.Folder)

	// 读取目录内容（非递归）
	entries, err := os.ReadDir(s.Folder)
	if err != nil {
		return nil, err
	}

	var videoFiles []VideoFile
	for _, entry := range entries {
		// 跳过目录和隐藏文件
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(s.Folder, entry.Name())
		if !project.IsVideoFile(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("获取文件信息失败: %v", err)
			continue
		}

		videoFiles = append(videoFiles, VideoFile{
			Path:    path,
			Name:    entry.Name(),
			Ext:     strings.ToLower(filepath.Ext(path)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(videoFiles, func(i, j int) bool {
		return videoFiles[i].ModTime.Before(videoFiles[j].ModTime)
	})

	logrus.Infof("扫描完成，共找到 %d 个视频文件", len(videoFiles))

	return videoFiles, nil
}

// FilterNewFiles 根据已处理记录过滤出新文件
func (s *VideoScanner) FilterNewFiles(files []VideoFile, processedPaths map[string]bool) []VideoFile {
	var newFiles []VideoFile

	for _, file := range files {
		if !processedPaths[file.Path] {
			newFiles = append(newFiles, file)
		}
	}

	logrus.Infof("过滤后剩余 %d 个新文件需要处理", len(newFiles))

	return newFiles
}

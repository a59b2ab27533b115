package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

// 创建测试目录和测试文件
func setupTestDirectory(t *testing.T) string {
	tempDir := t.TempDir()

	// 视频、非视频、隐藏文件、子目录各来一些
	testFiles := []string{
		"lecture1.mp4",
		"lecture2.mkv",
		"audio.mp3",
		"document.pdf",
		".hidden.mp4",
		"subfolder/nested.mp4",
	}

	// 创建子文件夹
	if err := os.MkdirAll(filepath.Join(tempDir, "subfolder"), 0755); err != nil {
		t.Fatalf("创建子文件夹失败: %v", err)
	}

	// 创建所有测试文件
	for _, fileName := range testFiles {
		filePath := filepath.Join(tempDir, fileName)
		if err := os.WriteFile(filePath, []byte("test content"), 0644); err != nil {
			t.Fatalf("创建测试文件失败 %s: %v", fileName, err)
		}
	}

	return tempDir
}

func TestScanDirectory(t *testing.T) {
	testDir := setupTestDirectory(t)

	scanner := NewVideoScanner(testDir)
	files, err := scanner.ScanDirectory()
	if err != nil {
		t.Fatalf("扫描目录失败: %v", err)
	}

	// 只有顶层的两个视频文件，隐藏文件和子目录被跳过
	if len(files) != 2 {
		t.Errorf("期望找到 2 个视频文件，实际找到 %d 个", len(files))
	}

	for _, file := range files {
		// 确保每个文件都有有效的元数据
		if file.Name == "" || file.Path == "" || file.Ext == "" || file.Size == 0 {
			t.Errorf("文件元数据不完整: %+v", file)
		}
		if file.Name == ".hidden.mp4" {
			t.Error("隐藏文件未被跳过")
		}
		if file.Name == "audio.mp3" || file.Name == "document.pdf" {
			t.Errorf("非视频文件未被跳过: %s", file.Name)
		}
	}
}

func TestScanDirectoryMissing(t *testing.T) {
	scanner := NewVideoScanner("/no/such/dir")
	_, err := scanner.ScanDirectory()
	if err == nil {
		t.Error("扫描不存在的目录应该报错")
	}
}

func TestFilterNewFiles(t *testing.T) {
	// 创建测试文件列表
	testFiles := []VideoFile{
		{Path: "/path/to/file1.mp4", Name: "file1.mp4"},
		{Path: "/path/to/file2.mp4", Name: "file2.mp4"},
		{Path: "/path/to/file3.mkv", Name: "file3.mkv"},
	}

	// 创建已处理文件记录
	processedPaths := map[string]bool{
		"/path/to/file1.mp4": true, // 已处理
	}

	scanner := NewVideoScanner("")
	newFiles := scanner.FilterNewFiles(testFiles, processedPaths)

	if len(newFiles) != 2 {
		t.Errorf("期望过滤后剩余 2 个文件，实际有 %d 个", len(newFiles))
	}

	for _, file := range newFiles {
		if file.Path == "/path/to/file1.mp4" {
			t.Errorf("已处理文件未被过滤: %s", file.Path)
		}
	}
}

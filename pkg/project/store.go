package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/video-dubbing-cli/pkg/models"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// ErrNotFound 项目不存在或还没有翻译结果文件
var ErrNotFound = errors.New("项目或翻译文件不存在")

// ErrBadProjectID 项目ID含有路径成分，拒绝访问
var ErrBadProjectID = errors.New("非法的项目ID")

// MalformedError 翻译文件不是合法JSON
type MalformedError struct {
	Path  string
	Cause error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("翻译文件损坏: %s: %v", e.Path, e.Cause)
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// Info 项目列表条目
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store 按项目ID读写翻译文档。实现是单写者、后写覆盖，不加文件锁。
type Store interface {
	List() ([]Info, error)
	Load(id string) (*models.TranslationDoc, error)
	Save(id string, doc *models.TranslationDoc) error
	SaveRaw(id string, data []byte) error
	Path(id string) string
}

// FSStore 基于文件系统的项目仓库，每个项目是数据根目录下的一个子目录
type FSStore struct {
	DataDir string
}

// NewFSStore 创建文件系统仓库
func NewFSStore(dataDir string) *FSStore {
	return &FSStore{DataDir: dataDir}
}

// List 列出含有翻译结果文件的项目
func (s *FSStore) List() ([]Info, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("读取数据目录失败: %w", err)
	}

	infos := make([]Info, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if utils.CheckFileExists(s.Path(entry.Name())) {
			infos = append(infos, Info{ID: entry.Name(), Name: entry.Name()})
		}
	}

	return infos, nil
}

// Path 项目翻译文件的路径
func (s *FSStore) Path(id string) string {
	return filepath.Join(s.DataDir, id, TranslatedFileName)
}

// Load 读取并解析项目的翻译文档
func (s *FSStore) Load(id string) (*models.TranslationDoc, error) {
	if !validID(id) {
		return nil, ErrBadProjectID
	}

	path := s.Path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("项目 %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("读取翻译文件失败: %w", err)
	}

	var doc models.TranslationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Path: path, Cause: err}
	}

	return &doc, nil
}

// Save 将文档整体写回，两空格缩进覆盖原文件
func (s *FSStore) Save(id string, doc *models.TranslationDoc) error {
	if !validID(id) {
		return ErrBadProjectID
	}
	if !utils.CheckDirExists(filepath.Join(s.DataDir, id)) {
		return fmt.Errorf("项目 %s: %w", id, ErrNotFound)
	}

	return utils.SaveJSONFile(s.Path(id), doc)
}

// SaveRaw 将客户端提交的JSON原样落盘（仅重新缩进），后写覆盖先写
func (s *FSStore) SaveRaw(id string, data []byte) error {
	if !validID(id) {
		return ErrBadProjectID
	}
	if !utils.CheckDirExists(filepath.Join(s.DataDir, id)) {
		return fmt.Errorf("项目 %s: %w", id, ErrNotFound)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return &MalformedError{Path: s.Path(id), Cause: err}
	}

	if err := os.WriteFile(s.Path(id), pretty.Bytes(), 0644); err != nil {
		return fmt.Errorf("写入翻译文件失败: %w", err)
	}

	return nil
}

// 项目ID只允许是单层目录名
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

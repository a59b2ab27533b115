package ui

import (
	"sync"
)

// ProgressManager 按阶段id管理合成流程的进度条（裁剪/调速/标准化各一条）。
// 禁用时所有方法都是空操作，调用方不用关心进度条开关。
type ProgressManager struct {
	mu      sync.Mutex
	bars    map[string]*ProgressBar
	enabled bool
}

// NewProgressManager 创建进度管理器，enabled为false时不产生任何输出
func NewProgressManager(enabled bool) *ProgressManager {
	return &ProgressManager{
		bars:    make(map[string]*ProgressBar),
		enabled: enabled,
	}
}

// CreateProgressBar 为一个处理阶段注册进度条，同id的旧进度条先被结束
func (pm *ProgressManager) CreateProgressBar(id string, total int, prefix string, suffix string) *ProgressBar {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if old, ok := pm.bars[id]; ok {
		old.Complete("被新阶段替换")
	}
	if !pm.enabled {
		return nil
	}

	bar := NewProgressBar(total, prefix, suffix)
	pm.bars[id] = bar
	return bar
}

// GetProgressBar 按阶段id取进度条，不存在时返回nil
func (pm *ProgressManager) GetProgressBar(id string) *ProgressBar {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.bars[id]
}

// UpdateProgressBar 推进某个阶段的进度
func (pm *ProgressManager) UpdateProgressBar(id string, current int, suffix string) {
	if bar := pm.lookup(id); bar != nil {
		bar.Update(current, suffix)
	}
}

// CompleteProgressBar 结束某个阶段的进度条并注销它
func (pm *ProgressManager) CompleteProgressBar(id string, suffix string) {
	bar := pm.lookup(id)
	if bar == nil {
		return
	}

	bar.Complete(suffix)
	pm.RemoveProgressBar(id)
}

// RemoveProgressBar 注销进度条
func (pm *ProgressManager) RemoveProgressBar(id string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.bars, id)
}

// CloseAll 结束所有仍在进行的进度条，流程中断时由清理逻辑调用
func (pm *ProgressManager) CloseAll(suffix string) {
	pm.mu.Lock()
	remaining := make([]*ProgressBar, 0, len(pm.bars))
	for _, bar := range pm.bars {
		remaining = append(remaining, bar)
	}
	pm.bars = make(map[string]*ProgressBar)
	pm.mu.Unlock()

	for _, bar := range remaining {
		bar.Complete(suffix)
	}
}

func (pm *ProgressManager) lookup(id string) *ProgressBar {
	if !pm.enabled {
		return nil
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.bars[id]
}

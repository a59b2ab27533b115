package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/ccp-p/video-dubbing-cli/pkg/editor"
	"github.com/ccp-p/video-dubbing-cli/pkg/export"
	"github.com/ccp-p/video-dubbing-cli/pkg/project"
	"github.com/ccp-p/video-dubbing-cli/pkg/utils"
)

// 编辑会话表。每个项目同一时刻最多一个会话，单写者假设，
// 两个浏览器页签并发保存时后写覆盖先写。
var sessions = sync.Map{}

// sessionEntry 持有一个会话及其锁。editor.Session本身不做并发保护，
// 所有handler在entry锁内操作它。
type sessionEntry struct {
	mu   sync.Mutex
	sess *editor.Session
}

// --- Helper Functions ---

// respondWithError 发送错误 JSON 响应
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, BaseResponse{Code: code, Msg: message})
}

// respondWithJSON 发送 JSON 响应
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		utils.Error("JSON 序列化错误: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": 500, "msg": "内部服务器错误：无法序列化响应"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// storeErrorStatus 把仓库错误映射成HTTP状态码和提示
func storeErrorStatus(err error) (int, string) {
	var malformed *project.MalformedError
	switch {
	case errors.Is(err, project.ErrNotFound):
		return http.StatusNotFound, "项目不存在或还没有翻译结果"
	case errors.Is(err, project.ErrBadProjectID):
		return http.StatusBadRequest, "非法的项目ID"
	case errors.As(err, &malformed):
		return http.StatusInternalServerError, "翻译文件不是合法的JSON"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// editorErrorStatus 把编辑操作错误映射成HTTP状态码
func editorErrorStatus(err error) int {
	var idxErr *editor.IndexError
	switch {
	case errors.As(err, &idxErr),
		errors.Is(err, editor.ErrLastSegment),
		errors.Is(err, editor.ErrSameIndex):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// --- 基础 API ---

// handleHealth 健康检查
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"status": true})
}

// handleListFiles 列出含有翻译结果文件的项目
func handleListFiles(w http.ResponseWriter, r *http.Request) {
	infos, err := store.List()
	if err != nil {
		utils.Error("列出项目失败: %v", err)
		respondWithError(w, http.StatusInternalServerError, "读取数据目录失败")
		return
	}
	respondWithJSON(w, http.StatusOK, infos)
}

// handleGetFile 返回项目的翻译文档
func handleGetFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := store.Load(id)
	if err != nil {
		utils.Warn("读取项目 %s 失败: %v", id, err)
		code, msg := storeErrorStatus(err)
		respondWithError(w, code, msg)
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}

// handlePutFile 整体覆盖项目的翻译文档。请求体必须是含有segments数组的JSON，
// 通过校验后原样落盘（仅重新缩进），后写覆盖先写。
func handlePutFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "读取请求体失败")
		return
	}
	defer r.Body.Close()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		respondWithError(w, http.StatusBadRequest, "请求体不是合法的JSON对象")
		return
	}
	segments, ok := fields["segments"]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "缺少 segments 字段")
		return
	}
	var segList []json.RawMessage
	if err := json.Unmarshal(segments, &segList); err != nil {
		respondWithError(w, http.StatusBadRequest, "segments 必须是数组")
		return
	}

	if err := store.SaveRaw(id, body); err != nil {
		utils.Error("保存项目 %s 失败: %v", id, err)
		code, msg := storeErrorStatus(err)
		respondWithError(w, code, msg)
		return
	}

	utils.Info("项目 %s 已保存 (%d 个段落)", id, len(segList))
	respondWithJSON(w, http.StatusOK, BaseResponse{Code: 0, Msg: "已保存"})
}

// handleExportFile 导出项目的字幕或双语文本
func handleExportFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	format := r.URL.Query().Get("format")

	doc, err := store.Load(id)
	if err != nil {
		code, msg := storeErrorStatus(err)
		respondWithError(w, code, msg)
		return
	}

	var content, filename string
	switch format {
	case "srt":
		content = export.GenerateSRT(doc)
		filename = id + ".srt"
	case "txt":
		content = export.GenerateBilingualText(doc)
		filename = id + "_bilingual.txt"
	default:
		respondWithError(w, http.StatusBadRequest, "format 必须是 srt 或 txt")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

// --- 编辑会话 API ---

// handleSessionOpen 打开（或重新打开）一个项目的编辑会话。
// 重新打开会丢弃未保存的编辑，重置快照取自当前文件内容。
func handleSessionOpen(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := store.Load(id)
	if err != nil {
		code, msg := storeErrorStatus(err)
		respondWithError(w, code, msg)
		return
	}

	entry := &sessionEntry{sess: editor.NewSession(id, doc)}
	sessions.Store(id, entry)
	utils.Info("打开编辑会话: %s (%d 个段落)", id, entry.sess.Len())

	respondWithJSON(w, http.StatusOK, sessionView(entry.sess))
}

// handleSessionGet 返回会话当前状态
func handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, ok := loadSession(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "会话不存在，请先打开项目")
		return
	}

	entry.mu.Lock()
	view := sessionView(entry.sess)
	entry.mu.Unlock()
	respondWithJSON(w, http.StatusOK, view)
}

// handleSessionMerge 合并段落 index 和 index+1
func handleSessionMerge(w http.ResponseWriter, r *http.Request) {
	handleSessionOp(w, r, func(sess *editor.Session, req IndexRequest) error {
		return sess.Merge(req.Index, req.Index+1)
	})
}

// handleSessionDelete 删除一个段落，最后一段不允许删除
func handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	handleSessionOp(w, r, func(sess *editor.Session, req IndexRequest) error {
		return sess.Delete(req.Index)
	})
}

// handleSessionReset 将段落文本恢复到加载时的内容
func handleSessionReset(w http.ResponseWriter, r *http.Request) {
	handleSessionOp(w, r, func(sess *editor.Session, req IndexRequest) error {
		return sess.Reset(req.Index)
	})
}

// handleSessionText 替换段落的工作文本
func handleSessionText(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	defer r.Body.Close()

	entry, ok := loadSession(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "会话不存在，请先打开项目")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.sess.SetText(req.Index, req.Text); err != nil {
		respondWithError(w, editorErrorStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, sessionView(entry.sess))
}

// handleSessionSave 把会话拼回文档并整体写盘
func handleSessionSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, ok := loadSession(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "会话不存在，请先打开项目")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	doc := entry.sess.Document()
	if err := store.Save(id, doc); err != nil {
		// 保存失败时会话里的编辑原样保留，可以重试
		utils.Error("保存项目 %s 失败: %v", id, err)
		code, msg := storeErrorStatus(err)
		respondWithError(w, code, msg)
		return
	}

	entry.sess.Dirty = false
	utils.Info("项目 %s 已保存 (%d 个段落)", id, doc.TotalSegments)
	respondWithJSON(w, http.StatusOK, BaseResponse{Code: 0, Msg: "已保存"})
}

// handleSessionOp 解析{"index":i}请求并在会话锁内执行一个编辑操作
func handleSessionOp(w http.ResponseWriter, r *http.Request, op func(*editor.Session, IndexRequest) error) {
	id := mux.Vars(r)["id"]

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	defer r.Body.Close()

	entry, ok := loadSession(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "会话不存在，请先打开项目")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := op(entry.sess, req); err != nil {
		respondWithError(w, editorErrorStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, sessionView(entry.sess))
}

// --- 续跑任务 API ---

// handleCreateTask 创建编辑后续跑任务
func handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "无效的请求体: "+err.Error())
		return
	}
	defer r.Body.Close()

	if req.Project == "" || req.From == "" {
		respondWithError(w, http.StatusBadRequest, "缺少必要的字段 (project, from)")
		return
	}

	taskID, err := createResumeTask(req.Project, req.From, req.Options)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := CreateTaskResponse{
		BaseResponse: BaseResponse{Code: 0},
		Data: &struct {
			TaskID string `json:"task_id"`
		}{TaskID: taskID},
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// handleGetTask 查询任务状态
func handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	task, found := getTask(taskID)
	if !found {
		respondWithError(w, http.StatusNotFound, "未找到指定的任务")
		return
	}

	data := task.Snapshot()
	respondWithJSON(w, http.StatusOK, TaskStatusResponse{
		BaseResponse: BaseResponse{Code: 0},
		Data:         &data,
	})
}

// handleDeleteTask 删除任务记录（不会中断正在执行的流水线）
func handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	if _, found := getTask(taskID); !found {
		respondWithError(w, http.StatusNotFound, "未找到要删除的任务")
		return
	}

	tasks.Delete(taskID)
	utils.Info("删除任务: %s", taskID)
	respondWithJSON(w, http.StatusOK, BaseResponse{Code: 0, Msg: "任务已删除"})
}

func loadSession(id string) (*sessionEntry, bool) {
	value, ok := sessions.Load(id)
	if !ok {
		return nil, false
	}
	entry, ok := value.(*sessionEntry)
	return entry, ok
}

// sessionView 生成会话的展示视图，时间异常的段落打上标记
func sessionView(sess *editor.Session) SessionView {
	view := SessionView{
		Project:       sess.Project,
		TotalSegments: sess.Len(),
		Dirty:         sess.Dirty,
		Segments:      make([]SegmentView, 0, sess.Len()),
	}

	for _, seg := range sess.Segments {
		view.Segments = append(view.Segments, SegmentView{
			Start:        seg.Start,
			End:          seg.End,
			TimeLabel:    utils.FormatMillis(seg.Start) + " - " + utils.FormatMillis(seg.End),
			OriginalText: seg.OriginalText,
			Text:         seg.Text(),
			TimeFlagged:  seg.Start > seg.End,
		})
	}

	return view
}

// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Corphon/FunnelCraft/internal/auth"
	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/funnel"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/services"
	"github.com/Corphon/FunnelCraft/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	Accounts   *services.AccountService
	Blueprints *services.BlueprintService
	Crafts     *services.CraftService
	Knowledge  *services.KnowledgeService
	Config     *services.ConfigService
	Tasks      *services.TaskService
	Metrics    *utils.FunnelMetrics

	tokens         *auth.TokenConfig
	allowedOrigins []string
	rh             *ResponseHelper
}

// Deps 汇总路由所需的服务
type Deps struct {
	Accounts   *services.AccountService
	Blueprints *services.BlueprintService
	Crafts     *services.CraftService
	Knowledge  *services.KnowledgeService
	Config     *services.ConfigService
	Metrics    *utils.FunnelMetrics
	Tokens     *auth.TokenConfig

	AllowedOrigins []string
	AdminAccounts  []string
	DebugMode      bool
	RateLimit      *RateLimiter
}

// NewHandler 创建API处理器
func NewHandler(d Deps) *Handler {
	return &Handler{
		Accounts:       d.Accounts,
		Blueprints:     d.Blueprints,
		Crafts:         d.Crafts,
		Knowledge:      d.Knowledge,
		Config:         d.Config,
		Tasks:          d.Blueprints.Tasks(),
		Metrics:        d.Metrics,
		tokens:         d.Tokens,
		allowedOrigins: d.AllowedOrigins,
		rh:             NewResponseHelper(),
	}
}

// ===== 系统 =====

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	status := h.Config.LLMStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": status.Ready,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GetMetrics 返回进程内指标
func (h *Handler) GetMetrics(c *gin.Context) {
	h.rh.Success(c, h.Metrics.Collector().GetMetrics())
}

// GetQuestions 返回九个问题
func (h *Handler) GetQuestions(c *gin.Context) {
	h.rh.Success(c, funnel.Questions())
}

// ===== 问答会话 =====

type startCraftRequest struct {
	AuthorName string `json:"author_name"`
}

// StartCraftSession 开始一次问答
func (h *Handler) StartCraftSession(c *gin.Context) {
	var req startCraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.rh.BadRequest(c, "invalid request body", err.Error())
			return
		}
	}
	if req.AuthorName == "" {
		req.AuthorName = h.storedAuthor(c)
	}

	sess, err := h.Crafts.StartSession(c.Param("id"), req.AuthorName)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Created(c, sess)
}

// storedAuthor falls back to the author name remembered on the account.
func (h *Handler) storedAuthor(c *gin.Context) string {
	rec, err := h.Accounts.GetOrEmpty(c.Request.Context(), c.Param("id"))
	if err != nil {
		return ""
	}
	return rec.AuthorName
}

// GetCraftSession 查看会话状态
func (h *Handler) GetCraftSession(c *gin.Context) {
	sess, err := h.Crafts.GetSession(c.Param("id"), c.Param("sid"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, sess)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// SubmitCraftAnswer 回答当前问题
func (h *Handler) SubmitCraftAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "invalid request body", err.Error())
		return
	}

	sess, err := h.Crafts.SubmitAnswer(c.Request.Context(), c.Param("id"), c.Param("sid"), req.Answer)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, sess)
}

// ===== 蓝图 =====

type generateRequest struct {
	Answers    []string `json:"answers"`
	AuthorName string   `json:"author_name"`
}

func (h *Handler) bindGenerate(c *gin.Context) (*generateRequest, bool) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "invalid request body", err.Error())
		return nil, false
	}
	if req.AuthorName == "" {
		req.AuthorName = h.storedAuthor(c)
	}
	return &req, true
}

// GenerateBlueprint 根据答案生成模板蓝图并保存
func (h *Handler) GenerateBlueprint(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	result, err := h.Blueprints.GenerateFromAnswers(c.Request.Context(), c.Param("id"), req.Answers, req.AuthorName)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Created(c, result)
}

// GenerateBlueprintWithLLM starts an LLM generation and returns the task id.
func (h *Handler) GenerateBlueprintWithLLM(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}

	taskID, err := h.Blueprints.StartLLMGeneration(c.Param("id"), req.Answers, req.AuthorName)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Accepted(c, gin.H{
		"task_id":    taskID,
		"stream_url": fmt.Sprintf("/api/tasks/%s/stream", taskID),
	}, "generation started")
}

// GetGenerationStatus 是否有生成任务正在运行
func (h *Handler) GetGenerationStatus(c *gin.Context) {
	taskID, running := h.Blueprints.IsGenerating(c.Param("id"))
	h.rh.Success(c, gin.H{"generating": running, "task_id": taskID})
}

// GetBlueprint 读取保存的蓝图文档
func (h *Handler) GetBlueprint(c *gin.Context) {
	doc, err := h.Blueprints.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	if c.Query("format") == "text" {
		h.rh.DownloadResponse(c, doc, "funnel-blueprint.md", "text/markdown; charset=utf-8")
		return
	}
	h.rh.Success(c, gin.H{"document": doc})
}

type saveBlueprintRequest struct {
	Document string `json:"document" binding:"required"`
}

// SaveBlueprint 覆盖保存蓝图文档
func (h *Handler) SaveBlueprint(c *gin.Context) {
	var req saveBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "document is required")
		return
	}
	if err := h.Blueprints.Save(c.Request.Context(), c.Param("id"), req.Document); err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, gin.H{"saved": true}, "blueprint saved")
}

// GetBlueprintContent parses the stored document into the editable model.
func (h *Handler) GetBlueprintContent(c *gin.Context) {
	content, err := h.Blueprints.Parse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, content)
}

// ===== 可编辑内容 =====

// 编辑操作
const (
	EditSetField      = "set_field"
	EditSetItem       = "set_item"
	EditSetObjectItem = "set_object_item"
	EditAddItem       = "add_item"
)

// EditRequest carries the client's current model plus one edit. The
// server keeps no copy of the model.
type EditRequest struct {
	Content   *models.EditableContent `json:"content"`
	Operation string                  `json:"operation"`
	Namespace models.Namespace        `json:"namespace"`
	Field     string                  `json:"field"`
	Index     *int                    `json:"index,omitempty"`
	Key       string                  `json:"key,omitempty"`
	Value     string                  `json:"value"`
}

func applyEdit(req *EditRequest) (*models.EditableContent, error) {
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	switch req.Operation {
	case EditSetField:
		return funnel.UpdateScalarField(req.Content, req.Namespace, req.Field, req.Value)
	case EditSetItem:
		return funnel.UpdateArrayItem(req.Content, req.Namespace, req.Field, index, req.Value)
	case EditSetObjectItem:
		return funnel.UpdateObjectItem(req.Content, req.Namespace, req.Field, index, req.Key, req.Value)
	case EditAddItem:
		return funnel.AddArrayItem(req.Content, req.Namespace, req.Field, req.Value)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown operation %q", req.Operation), nil)
	}
}

// EditContent applies one edit and returns the new model.
func (h *Handler) EditContent(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "invalid request body", err.Error())
		return
	}
	next, err := applyEdit(&req)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, next)
}

type exportRequest struct {
	Content *models.EditableContent `json:"content"`
}

// ExportContent 导出纯文本, ?section= 选择单个命名空间
func (h *Handler) ExportContent(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "invalid request body", err.Error())
		return
	}

	section := c.Query("section")
	if section == "" {
		h.rh.TextResponse(c, funnel.SerializeAll(req.Content))
		return
	}
	text, err := funnel.SerializeSection(req.Content, models.Namespace(section))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.TextResponse(c, text)
}

// ===== 进度 =====

// GetProgress 返回阶段进度
func (h *Handler) GetProgress(c *gin.Context) {
	progress, err := h.Accounts.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, progress)
}

type setFlagRequest struct {
	Value *bool `json:"value"`
}

// SetFlag confirms (or clears) one progress flag. An empty body sets it.
func (h *Handler) SetFlag(c *gin.Context) {
	var req setFlagRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.rh.BadRequest(c, "invalid request body", err.Error())
			return
		}
	}
	value := true
	if req.Value != nil {
		value = *req.Value
	}

	rec, err := h.Accounts.SetFlag(c.Request.Context(), c.Param("id"), models.ProgressFlag(c.Param("flag")), value)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, funnel.ComputeProgress(rec.Flags))
}

// ===== 知识库 =====

// UploadKnowledge 上传资料 (multipart 字段 "file")
func (h *Handler) UploadKnowledge(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.rh.Error(c, http.StatusBadRequest, ErrorFileInvalid, "file field is required")
		return
	}
	if file.Size > services.MaxKnowledgeFileSize {
		h.rh.Error(c, http.StatusRequestEntityTooLarge, ErrorFileTooLarge,
			fmt.Sprintf("file exceeds %d bytes", services.MaxKnowledgeFileSize))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.rh.Error(c, http.StatusBadRequest, ErrorFileInvalid, "cannot open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxKnowledgeFileSize+1))
	if err != nil {
		h.rh.Error(c, http.StatusBadRequest, ErrorFileInvalid, "cannot read uploaded file")
		return
	}

	doc, err := h.Knowledge.Upload(c.Request.Context(), c.Param("id"), file.Filename, data)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Created(c, doc)
}

// ListKnowledge 列出已上传资料
func (h *Handler) ListKnowledge(c *gin.Context) {
	docs, err := h.Knowledge.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, docs)
}

// ExtractBusinessContext 用LLM总结业务背景
func (h *Handler) ExtractBusinessContext(c *gin.Context) {
	bc, err := h.Knowledge.ExtractBusinessContext(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, bc)
}

// ===== LLM 配置 =====

// GetLLMConfig 返回当前LLM配置 (密钥已脱敏)
func (h *Handler) GetLLMConfig(c *gin.Context) {
	h.rh.Success(c, h.Config.LLMStatus())
}

type updateLLMConfigRequest struct {
	Provider string            `json:"provider"`
	Config   map[string]string `json:"config"`
}

// UpdateLLMConfig 更新LLM配置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req updateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rh.BadRequest(c, "invalid request body")
		return
	}

	changedBy, _ := AccountFromContext(c)
	if err := h.Config.UpdateLLMConfig(req.Provider, req.Config, changedBy); err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}
	h.rh.Success(c, h.Config.LLMStatus(), "LLM configuration updated")
}

// GetLLMConfigHistory 配置变更历史
func (h *Handler) GetLLMConfigHistory(c *gin.Context) {
	h.rh.Success(c, h.Config.GetChangeHistory(20))
}

// ===== 任务 =====

// ownedTracker returns the tracker when it belongs to the caller.
func (h *Handler) ownedTracker(c *gin.Context) (*services.TaskTracker, bool) {
	tracker, ok := h.Tasks.GetTracker(c.Param("taskID"))
	accountID, _ := AccountFromContext(c)
	if !ok || tracker.AccountID != accountID {
		h.rh.NotFound(c, "task")
		return nil, false
	}
	return tracker, true
}

// GetTask 查询任务状态
func (h *Handler) GetTask(c *gin.Context) {
	tracker, ok := h.ownedTracker(c)
	if !ok {
		return
	}
	h.rh.Success(c, tracker.Snapshot())
}

// SubscribeTask streams task updates as server-sent events until the task
// finishes or the client goes away.
func (h *Handler) SubscribeTask(c *gin.Context) {
	tracker, ok := h.ownedTracker(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"task_id\":%q}\n\n", tracker.TaskID)
	c.Writer.Flush()

	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			data, _ := json.Marshal(update)
			fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", data)
			c.Writer.Flush()

			if update.Status == services.TaskCompleted || update.Status == services.TaskFailed {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"time\":%d}\n\n", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/config"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/services"
	"github.com/Corphon/FunnelCraft/internal/storage"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

var answers = []string{
	"Overwhelm from juggling too many clients",
	"Block one hour for deep work tomorrow",
	"Checklist",
	"The Calm Calendar Checklist",
	"1. Audit your week\n2. Batch similar tasks\n- Protect your mornings",
	"Solo coaches with full practices",
	"A calm, predictable week with room to grow",
	"12-week Calm Business Coaching",
	"I don't have time to change my systems",
}

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	store, err := storage.NewFileRecordStore(dataDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	locks := services.NewLockManager()
	t.Cleanup(locks.Close)

	cfg := config.Defaults()
	cfg.DataDir = dataDir
	manager, err := config.NewManager(cfg)
	require.NoError(t, err)

	metrics := utils.NewFunnelMetrics(utils.NewMetricsCollector())
	llmService := services.NewLLMService("", nil, metrics)
	accounts := services.NewAccountService(store, locks)
	blueprints := services.NewBlueprintService(accounts, llmService, services.NewTaskService(), metrics, 5*time.Second)

	tokens, err := auth.NewTokenConfig("test-secret", time.Hour)
	require.NoError(t, err)

	router := SetupRouter(Deps{
		Accounts:   accounts,
		Blueprints: blueprints,
		Crafts:     services.NewCraftService(blueprints),
		Knowledge:  services.NewKnowledgeService(accounts, llmService),
		Config:     services.NewConfigService(manager, llmService),
		Metrics:    metrics,
		Tokens:     tokens,
		DebugMode:  true,
		RateLimit:  NewRateLimiter(60, 5),

		AdminAccounts: []string{"ops"},
	})
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) token(t *testing.T, accountID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(accountID, s.tokens)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, accountID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, accountID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) *APIResponse {
	t.Helper()
	resp := &APIResponse{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp), w.Body.String())
	return resp
}

func TestHealthAndQuestionsArePublic(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var questions []models.Question
	decode(t, w, &questions)
	assert.Len(t, questions, 9)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequiredAndAccountMustMatch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/accounts/acct1/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/acct1/progress", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-one")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/progress", "acct2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, ErrorForbidden, resp.Error.Code)
}

func TestLLMConfigChangesNeedAdmin(t *testing.T) {
	s := newTestServer(t)
	update := map[string]interface{}{
		"provider": "anthropic",
		"config":   map[string]string{"api_key": "sk-attacker"},
	}

	w := s.do(t, http.MethodPut, "/api/llm/config", "acct1", update)
	require.Equal(t, http.StatusForbidden, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, ErrorForbidden, resp.Error.Code)

	w = s.do(t, http.MethodGet, "/api/llm/config/history", "acct1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 读取状态对所有账户开放
	w = s.do(t, http.MethodGet, "/api/llm/config", "acct1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 管理员通过鉴权后由业务校验处理
	w = s.do(t, http.MethodPut, "/api/llm/config", "ops", map[string]interface{}{"provider": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/llm/config/history", "ops", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIssueTokenInDebugMode(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/token", "", gin.H{"account_id": "acct1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &data)

	parsed, err := auth.ParseToken(data.AccessToken, s.tokens)
	require.NoError(t, err)
	assert.Equal(t, "acct1", parsed.AccountID)
}

func TestGenerateLoadAndParseBlueprint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/accounts/acct1/blueprint", "acct1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/accounts/acct1/blueprint/generate", "acct1",
		gin.H{"answers": answers, "author_name": "Dana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result services.GenerateResult
	decode(t, w, &result)
	assert.True(t, result.Saved)
	assert.Contains(t, result.Document, "The Calm Calendar Checklist")

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/blueprint", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/blueprint/content", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var content models.EditableContent
	decode(t, w, &content)
	assert.Equal(t, "The Calm Calendar Checklist", content.LeadMagnet.Title)
	assert.Len(t, content.Emails, 4)

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/progress", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"funnel_craft_complete":true`)
}

func TestGenerateRejectsIncompleteAnswers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/accounts/acct1/blueprint/generate", "acct1",
		gin.H{"answers": answers[:3]})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestSaveBlueprintOverwrites(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/accounts/acct1/blueprint", "acct1", gin.H{"document": "# edited"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/blueprint?format=text", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# edited", w.Body.String())

	w = s.do(t, http.MethodPut, "/api/accounts/acct1/blueprint", "acct1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLLMGenerationUnavailable(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/accounts/acct1/blueprint/generate/llm", "acct1",
		gin.H{"answers": answers})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, "LLM_UNAVAILABLE", resp.Error.Code)
}

func TestEditContent(t *testing.T) {
	s := newTestServer(t)
	start := models.NewEditableContent()
	start.SocialCapture.Keywords = []string{"CALM"}

	w := s.do(t, http.MethodPost, "/api/content/edit", "acct1", EditRequest{
		Content:   start,
		Operation: EditAddItem,
		Namespace: models.NamespaceSocialCapture,
		Field:     "keywords",
		Value:     "CHECKLIST",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next models.EditableContent
	decode(t, w, &next)
	assert.Equal(t, []string{"CALM", "CHECKLIST"}, next.SocialCapture.Keywords)

	index := 0
	w = s.do(t, http.MethodPost, "/api/content/edit", "acct1", EditRequest{
		Content:   &next,
		Operation: EditSetItem,
		Namespace: models.NamespaceSocialCapture,
		Field:     "keywords",
		Index:     &index,
		Value:     "PEACE",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var edited models.EditableContent
	decode(t, w, &edited)
	assert.Equal(t, []string{"PEACE", "CHECKLIST"}, edited.SocialCapture.Keywords)

	w = s.do(t, http.MethodPost, "/api/content/edit", "acct1", EditRequest{
		Operation: EditSetField,
		Namespace: "nope",
		Field:     "headline",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/content/edit", "acct1", EditRequest{Operation: "delete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportContent(t *testing.T) {
	s := newTestServer(t)
	content := models.NewEditableContent()
	content.LandingPage.Headline = "Find Your Calm"

	w := s.do(t, http.MethodPost, "/api/content/export?section=landingPage", "acct1", gin.H{"content": content})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Body.String(), "Find Your Calm")

	w = s.do(t, http.MethodPost, "/api/content/export?section=unknown", "acct1", gin.H{"content": content})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/content/export", "acct1", gin.H{"content": content})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Find Your Calm")
}

func TestSetFlag(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/accounts/acct1/flags/landing_page_built", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"landing_page_built":true`)

	w = s.do(t, http.MethodPut, "/api/accounts/acct1/flags/landing_page_built", "acct1", gin.H{"value": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"landing_page_built":false`)

	w = s.do(t, http.MethodPut, "/api/accounts/acct1/flags/made_up", "acct1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCraftSessionOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/accounts/acct1/craft/sessions", "acct1", gin.H{"author_name": "Dana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess models.CraftSession
	decode(t, w, &sess)
	require.NotNil(t, sess.NextQuestion)
	assert.Equal(t, 0, sess.NextQuestion.Index)

	path := "/api/accounts/acct1/craft/sessions/" + sess.ID + "/answers"
	w = s.do(t, http.MethodPost, path, "acct1", gin.H{"answer": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, a := range answers {
		w = s.do(t, http.MethodPost, path, "acct1", gin.H{"answer": a})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	decode(t, w, &sess)
	assert.Equal(t, models.CraftSessionCompleted, sess.Status)
	assert.Contains(t, sess.Blueprint, "Dana")

	w = s.do(t, http.MethodGet, "/api/accounts/acct2/craft/sessions/"+sess.ID, "acct2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCraftWebSocket(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/accounts/acct1/craft/ws?author_name=Dana&access_token=" + s.token(t, "acct1")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg craftMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, wsTypeQuestion, msg.Type)

	require.NoError(t, conn.WriteJSON(craftMessage{Type: wsTypeAnswer, Answer: ""}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, wsTypeError, msg.Type)

	for _, a := range answers {
		require.NoError(t, conn.WriteJSON(craftMessage{Type: wsTypeAnswer, Answer: a}))
		msg = craftMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
	}
	assert.Equal(t, wsTypeCompleted, msg.Type)
	require.NotNil(t, msg.Session)
	assert.Equal(t, models.CraftSessionCompleted, msg.Session.Status)
}

func TestUploadKnowledge(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "about.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# About\nWe coach founders."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/accounts/acct1/knowledge", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, "acct1"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/accounts/acct1/knowledge", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var docs []models.KnowledgeDoc
	decode(t, w, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "about.md", docs[0].Filename)

	w = s.do(t, http.MethodPost, "/api/accounts/acct1/knowledge", "acct1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskNotFound(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/tasks/missing", "acct1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, ErrorTaskNotFound, resp.Error.Code)
}

func TestMetricsRecordRequests(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/questions", "", nil)

	w := s.do(t, http.MethodGet, "/api/metrics", "acct1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/questions")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	rl.idle = 0
	time.Sleep(time.Millisecond)
	assert.Equal(t, 2, rl.Cleanup())
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(corsMiddleware([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	assert.True(t, originAllowed(nil, "https://any"))
	assert.False(t, originAllowed([]string{"https://a"}, "https://b"))
}

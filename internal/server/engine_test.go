package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/config"
	"learnhub_client/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.JWT.Expire = 1
	cfg.Server.AllowOrigins = []string{"http://localhost:3000"}
	cfg.Upload.MaxBytes = 1 << 20
	cfg.Upload.AllowedTypes = []string{"image/png"}
	config.GlobalConfig = *cfg
	return cfg
}

func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, err := NewEngine(testConfig(), Options{})
	require.NoError(t, err)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": email})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func createItem(t *testing.T, r http.Handler, token, collection, title string) model.ContentItem {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("description", "d"))
	require.NoError(t, mw.WriteField("startDate", "2026-01-01"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/"+collection, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item model.ContentItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	return item
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupEngine(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestLikeToggleIsAtomicPerUser(t *testing.T) {
	r := setupEngine(t)
	alice := login(t, r, "alice@example.com")
	bob := login(t, r, "bob@example.com")
	item := createItem(t, r, alice, "skills", "Go")

	var st model.LikeState
	w := doJSON(t, r, http.MethodPut, "/api/skills/"+item.ID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, model.LikeState{Liked: true, LikeCount: 1}, st)

	w = doJSON(t, r, http.MethodPut, "/api/skills/"+item.ID+"/like", alice, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, model.LikeState{Liked: true, LikeCount: 2}, st)

	w = doJSON(t, r, http.MethodPut, "/api/skills/"+item.ID+"/like", bob, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, model.LikeState{Liked: false, LikeCount: 1}, st)

	// 匿名读取点赞用户
	w = doJSON(t, r, http.MethodGet, "/api/skills/"+item.ID+"/liked-users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []model.UserSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)
}

func TestLikeRequiresAuth(t *testing.T) {
	r := setupEngine(t)
	w := doJSON(t, r, http.MethodPut, "/api/goals/x/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentOwnership(t *testing.T) {
	r := setupEngine(t)
	alice := login(t, r, "alice@example.com")
	bob := login(t, r, "bob@example.com")
	item := createItem(t, r, alice, "learning-plans", "Plan")

	w := doJSON(t, r, http.MethodPost, "/api/learning-plans/"+item.ID+"/comments", bob, model.CommentInput{Text: "nice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "bob@example.com", c.Author.Email)

	w = doJSON(t, r, http.MethodPut, "/api/learning-plans/comments/"+c.ID, alice, model.CommentInput{Text: "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	var env response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, response.ErrNotOwner, env.Code)
	assert.NotEmpty(t, env.Message)

	w = doJSON(t, r, http.MethodPut, "/api/learning-plans/comments/"+c.ID, bob, model.CommentInput{Text: "very nice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/learning-plans/"+item.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "very nice", list[0].Text)

	w = doJSON(t, r, http.MethodDelete, "/api/learning-plans/comments/"+c.ID, alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/api/learning-plans/comments/"+c.ID, bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// 其他内容类型下找不到该评论
	w = doJSON(t, r, http.MethodDelete, "/api/goals/comments/"+c.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmptyCommentRejected(t *testing.T) {
	r := setupEngine(t)
	alice := login(t, r, "alice@example.com")
	item := createItem(t, r, alice, "goals", "Goal")

	w := doJSON(t, r, http.MethodPost, "/api/goals/"+item.ID+"/comments", alice, model.CommentInput{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/goals/"+item.ID+"/comments", alice, model.CommentInput{Text: strings.Repeat("a", 2001)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/goals/"+item.ID+"/comments", alice, model.CommentInput{Text: `hi<script>x()</script>`})
	require.Equal(t, http.StatusCreated, w.Code)
	var c model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "hi", c.Text)
}

func TestContentListAndDelete(t *testing.T) {
	r := setupEngine(t)
	alice := login(t, r, "alice@example.com")
	bob := login(t, r, "bob@example.com")
	item := createItem(t, r, alice, "learning-progress", "Week 1")
	assert.Equal(t, "alice@example.com", item.Author.Email)
	require.NotNil(t, item.StartDate)

	w := doJSON(t, r, http.MethodGet, "/api/learning-progress", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []model.ContentItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)

	w = doJSON(t, r, http.MethodDelete, "/api/learning-progress/"+item.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/api/learning-progress/"+item.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/learning-progress/"+item.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/domain/content/repository"
	"learnhub_client/internal/domain/content/service"
	"learnhub_client/internal/pkg/middleware"
	"learnhub_client/internal/pkg/uploader"
	"learnhub_client/pkg/metrics"
	"learnhub_client/pkg/response"
	"learnhub_client/pkg/security"

	"github.com/gin-gonic/gin"
)

// CollectionKey 路由组写入的内容类型
const CollectionKey = "collection"

type ContentHandler struct {
	service  service.ContentService
	uploader uploader.Uploader
	metrics  *metrics.MetricsCollector
}

// NewContentHandler m 可以为空
func NewContentHandler(s service.ContentService, up uploader.Uploader, m *metrics.MetricsCollector) *ContentHandler {
	return &ContentHandler{service: s, uploader: up, metrics: m}
}

func (h *ContentHandler) record(op, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordInteraction(op, outcome)
	}
}

// WithCollection 为路由组绑定内容类型
func WithCollection(collection model.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CollectionKey, collection)
		c.Next()
	}
}

func collectionOf(c *gin.Context) model.Collection {
	return c.MustGet(CollectionKey).(model.Collection)
}

func actorOf(c *gin.Context) model.UserSummary {
	return model.UserSummary{
		ID:       c.GetString(middleware.CtxUserID),
		Email:    c.GetString(middleware.CtxEmail),
		Username: c.GetString(middleware.CtxUsername),
	}
}

// List 获取内容列表
func (h *ContentHandler) List(c *gin.Context) {
	items, err := h.service.List(collectionOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, items)
}

// Get 获取单条内容
func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(collectionOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, item)
}

// Create 发布内容 (multipart/form-data)
func (h *ContentHandler) Create(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	item, err := h.service.Create(collectionOf(c), actorOf(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, item)
}

// Update 修改内容，仅作者可操作
func (h *ContentHandler) Update(c *gin.Context) {
	in, ok := h.bindInput(c)
	if !ok {
		return
	}
	item, err := h.service.Update(collectionOf(c), c.Param("id"), actorOf(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, item)
}

// Delete 删除内容，仅作者可操作
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(collectionOf(c), c.Param("id"), actorOf(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleLike 点赞/取消点赞
func (h *ContentHandler) ToggleLike(c *gin.Context) {
	state, err := h.service.ToggleLike(collectionOf(c), c.Param("id"), actorOf(c))
	if err != nil {
		h.record("like_toggle", "error")
		h.fail(c, err)
		return
	}
	if state.Liked {
		h.record("like_toggle", "liked")
	} else {
		h.record("like_toggle", "unliked")
	}
	response.Success(c, state)
}

// LikedUsers 点赞用户列表
func (h *ContentHandler) LikedUsers(c *gin.Context) {
	users, err := h.service.LikedUsers(collectionOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, users)
}

// GetComments 评论列表
func (h *ContentHandler) GetComments(c *gin.Context) {
	comments, err := h.service.Comments(collectionOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, comments)
}

// AddComment 发表评论
func (h *ContentHandler) AddComment(c *gin.Context) {
	var input model.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrEmptyComment, err.Error())
		return
	}
	comment, err := h.service.AddComment(collectionOf(c), c.Param("id"), actorOf(c), input.Text)
	if err != nil {
		h.record("create_comment", "error")
		h.fail(c, err)
		return
	}
	h.record("create_comment", "success")
	response.Created(c, comment)
}

// UpdateComment 修改评论，仅作者可操作
func (h *ContentHandler) UpdateComment(c *gin.Context) {
	var input model.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrEmptyComment, err.Error())
		return
	}
	comment, err := h.service.UpdateComment(collectionOf(c), c.Param("commentId"), actorOf(c), input.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, comment)
}

// DeleteComment 删除评论，仅作者可操作
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteComment(collectionOf(c), c.Param("commentId"), actorOf(c)); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// bindInput 解析表单字段并上传可选的附件
func (h *ContentHandler) bindInput(c *gin.Context) (service.Input, bool) {
	in := service.Input{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	var err error
	if in.StartDate, err = parseDate(c.PostForm("startDate")); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid startDate: "+err.Error())
		return in, false
	}
	if in.EndDate, err = parseDate(c.PostForm("endDate")); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid endDate: "+err.Error())
		return in, false
	}

	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return in, true
		}
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return in, false
	}
	if h.uploader == nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Uploader not initialized")
		return in, false
	}
	url, err := h.uploader.UploadFile(file)
	if err != nil {
		if errors.Is(err, uploader.ErrTooLarge) || errors.Is(err, uploader.ErrTypeNotAllowed) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed: "+err.Error())
		}
		return in, false
	}
	in.MediaURL = url
	return in, true
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (h *ContentHandler) fail(c *gin.Context, err error) {
	var tooLong *security.ErrTooLong
	switch {
	case errors.Is(err, repository.ErrContentNotFound):
		response.Error(c, http.StatusNotFound, response.ErrContentNotFound, "Content not found")
	case errors.Is(err, repository.ErrCommentNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCommentNotFound, "Comment not found")
	case errors.Is(err, service.ErrNotOwner):
		response.Error(c, http.StatusForbidden, response.ErrNotOwner, err.Error())
	case errors.Is(err, service.ErrEmptyComment):
		response.Error(c, http.StatusBadRequest, response.ErrEmptyComment, err.Error())
	case errors.Is(err, service.ErrEmptyTitle), errors.Is(err, service.ErrDateRange), errors.As(err, &tooLong):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}

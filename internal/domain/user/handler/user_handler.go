package handler

import (
	"errors"
	"net/http"

	"learnhub_client/internal/domain/user/model"
	"learnhub_client/internal/domain/user/repository"
	"learnhub_client/internal/domain/user/service"
	"learnhub_client/internal/pkg/middleware"
	"learnhub_client/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ProfileInput 资料修改输入
type ProfileInput struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// LoginOrRegister 处理登录请求
func (h *UserHandler) LoginOrRegister(c *gin.Context) {
	var input model.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	resp, err := h.service.LoginOrRegister(input.Email, input.Username)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
		return
	}

	response.Success(c, resp)
}

// Me 获取当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.GetString(middleware.CtxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser 获取单个用户
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 修改当前用户资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.GetString(middleware.CtxUserID), input.Username, input.ProfilePicture)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
		return
	}
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
}

package model

import (
	"time"

	contentmodel "learnhub_client/internal/domain/content/model"
)

// User 用户模型
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Summary 作者/点赞列表中使用的用户摘要
func (u *User) Summary() contentmodel.UserSummary {
	return contentmodel.UserSummary{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// LoginRequest 登录请求，邮箱不存在时自动注册
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

package service

import (
	"errors"
	"strings"
	"time"

	"learnhub_client/internal/domain/user/model"
	"learnhub_client/internal/domain/user/repository"
	"learnhub_client/pkg/utils"

	"github.com/google/uuid"
)

// UserService 用户服务接口
type UserService interface {
	LoginOrRegister(email, username string) (*model.LoginResponse, error)
	GetUser(id string) (*model.User, error)
	UpdateProfile(id, username, profilePicture string) (*model.User, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

// LoginOrRegister 登录或注册
func (s *userService) LoginOrRegister(email, username string) (*model.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	// 1. 查询用户是否存在
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		// 2. 不存在则注册
		if username == "" {
			username = email[:strings.Index(email+"@", "@")] // 默认用户名
		}
		user = &model.User{
			ID:        uuid.NewString(),
			Email:     email,
			Username:  username,
			CreatedAt: s.now(),
		}
		if err := s.repo.Create(user); err != nil {
			return nil, err
		}
	}

	// 3. 生成 Token
	token, expireAt, err := utils.GenerateToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, ExpiresAt: *expireAt, User: user}, nil
}

// GetUser 获取用户
func (s *userService) GetUser(id string) (*model.User, error) {
	return s.repo.GetByID(id)
}

// UpdateProfile 更新昵称与头像，空值表示不修改
func (s *userService) UpdateProfile(id, username, profilePicture string) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if username != "" {
		user.Username = username
	}
	if profilePicture != "" {
		user.ProfilePicture = profilePicture
	}
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

package service

import (
	"errors"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/domain/content/repository"
	"learnhub_client/pkg/security"

	"github.com/google/uuid"
)

var (
	ErrNotOwner     = errors.New("only the author can modify this resource")
	ErrEmptyComment = errors.New("comment text must not be empty")
	ErrEmptyTitle   = errors.New("title is required")
	ErrDateRange    = errors.New("end date is before start date")
)

// Input 创建/修改内容的字段
type Input struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	MediaURL    string
}

var (
	titleSanitizer       = security.NewTextSanitizer("title", 200, false)
	descriptionSanitizer = security.NewTextSanitizer("description", 5000, true)
	commentSanitizer     = security.NewTextSanitizer("comment", 2000, true)
)

// validate 清理文本字段并校验
func (in *Input) validate() error {
	var err error
	if in.Title, err = titleSanitizer.Sanitize(in.Title); err != nil {
		return err
	}
	if in.Title == "" {
		return ErrEmptyTitle
	}
	if in.Description, err = descriptionSanitizer.Sanitize(in.Description); err != nil {
		return err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return ErrDateRange
	}
	return nil
}

type ContentService interface {
	List(collection model.Collection) ([]model.ContentItem, error)
	Get(collection model.Collection, id string) (*model.ContentItem, error)
	Create(collection model.Collection, author model.UserSummary, in Input) (*model.ContentItem, error)
	Update(collection model.Collection, id string, actor model.UserSummary, in Input) (*model.ContentItem, error)
	Delete(collection model.Collection, id string, actor model.UserSummary) error

	ToggleLike(collection model.Collection, id string, actor model.UserSummary) (model.LikeState, error) // 返回切换后的状态
	LikedUsers(collection model.Collection, id string) ([]model.UserSummary, error)

	Comments(collection model.Collection, id string) ([]model.Comment, error)
	AddComment(collection model.Collection, id string, author model.UserSummary, text string) (*model.Comment, error)
	UpdateComment(collection model.Collection, commentID string, actor model.UserSummary, text string) (*model.Comment, error)
	DeleteComment(collection model.Collection, commentID string, actor model.UserSummary) error
}

type contentService struct {
	repo repository.ContentRepository
	now  func() time.Time
}

func NewContentService(repo repository.ContentRepository) ContentService {
	return &contentService{repo: repo, now: time.Now}
}

func (s *contentService) List(collection model.Collection) ([]model.ContentItem, error) {
	return s.repo.List(collection)
}

func (s *contentService) Get(collection model.Collection, id string) (*model.ContentItem, error) {
	return s.repo.GetByID(collection, id)
}

func (s *contentService) Create(collection model.Collection, author model.UserSummary, in Input) (*model.ContentItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	item := &model.ContentItem{
		ID:          uuid.NewString(),
		Collection:  collection,
		Author:      author,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		MediaURL:    in.MediaURL,
		CreatedAt:   now,
		UpdatedAt:   now,
		LikedUsers:  []model.UserSummary{},
	}
	if err := s.repo.Create(item); err != nil {
		return nil, err
	}
	return s.repo.GetByID(collection, item.ID)
}

// Update 未上传新文件时保留原媒体
func (s *contentService) Update(collection model.Collection, id string, actor model.UserSummary, in Input) (*model.ContentItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(collection, id)
	if err != nil {
		return nil, err
	}
	if !item.Author.SameUser(actor) {
		return nil, ErrNotOwner
	}

	item.Title = in.Title
	item.Description = in.Description
	item.StartDate = in.StartDate
	item.EndDate = in.EndDate
	if in.MediaURL != "" {
		item.MediaURL = in.MediaURL
	}
	item.UpdatedAt = s.now()
	if err := s.repo.Update(item); err != nil {
		return nil, err
	}
	return s.repo.GetByID(collection, id)
}

func (s *contentService) Delete(collection model.Collection, id string, actor model.UserSummary) error {
	item, err := s.repo.GetByID(collection, id)
	if err != nil {
		return err
	}
	if !item.Author.SameUser(actor) {
		return ErrNotOwner
	}
	return s.repo.Delete(collection, id)
}

func (s *contentService) ToggleLike(collection model.Collection, id string, actor model.UserSummary) (model.LikeState, error) {
	return s.repo.ToggleLike(collection, id, actor)
}

func (s *contentService) LikedUsers(collection model.Collection, id string) ([]model.UserSummary, error) {
	return s.repo.GetLikedUsers(collection, id)
}

func (s *contentService) Comments(collection model.Collection, id string) ([]model.Comment, error) {
	return s.repo.GetComments(collection, id)
}

func (s *contentService) AddComment(collection model.Collection, id string, author model.UserSummary, text string) (*model.Comment, error) {
	text, err := commentSanitizer.Sanitize(text)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyComment
	}
	now := s.now()
	comment := &model.Comment{
		ID:        uuid.NewString(),
		ContentID: id,
		Author:    author,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateComment(collection, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *contentService) UpdateComment(collection model.Collection, commentID string, actor model.UserSummary, text string) (*model.Comment, error) {
	text, err := commentSanitizer.Sanitize(text)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyComment
	}
	comment, err := s.repo.GetComment(collection, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.Author.SameUser(actor) {
		return nil, ErrNotOwner
	}
	comment.Text = text
	comment.UpdatedAt = s.now()
	if err := s.repo.UpdateComment(collection, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *contentService) DeleteComment(collection model.Collection, commentID string, actor model.UserSummary) error {
	comment, err := s.repo.GetComment(collection, commentID)
	if err != nil {
		return err
	}
	if !comment.Author.SameUser(actor) {
		return ErrNotOwner
	}
	return s.repo.DeleteComment(collection, commentID)
}

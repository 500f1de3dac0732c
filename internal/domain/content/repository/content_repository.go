package repository

import (
	"errors"
	"sync"

	"learnhub_client/internal/domain/content/model"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// ContentRepository 内容、点赞、评论存储
type ContentRepository interface {
	Create(item *model.ContentItem) error
	GetByID(collection model.Collection, id string) (*model.ContentItem, error)
	List(collection model.Collection) ([]model.ContentItem, error)
	Update(item *model.ContentItem) error
	Delete(collection model.Collection, id string) error

	// ToggleLike 在同一把锁内读改写，返回切换后的状态
	ToggleLike(collection model.Collection, id string, user model.UserSummary) (model.LikeState, error)
	GetLikedUsers(collection model.Collection, id string) ([]model.UserSummary, error)

	CreateComment(collection model.Collection, comment *model.Comment) error
	GetComment(collection model.Collection, commentID string) (*model.Comment, error)
	GetComments(collection model.Collection, contentID string) ([]model.Comment, error)
	UpdateComment(collection model.Collection, comment *model.Comment) error
	DeleteComment(collection model.Collection, commentID string) error
}

type entry struct {
	item     model.ContentItem
	comments []string
}

// contentRepository 内存实现，collection+id 唯一确定一条内容
type contentRepository struct {
	mu       sync.RWMutex
	items    map[model.Collection]map[string]*entry
	order    map[model.Collection][]string
	comments map[string]*model.Comment
	owner    map[string]model.Collection
}

func NewContentRepository() ContentRepository {
	r := &contentRepository{
		items:    make(map[model.Collection]map[string]*entry),
		order:    make(map[model.Collection][]string),
		comments: make(map[string]*model.Comment),
		owner:    make(map[string]model.Collection),
	}
	for _, c := range model.Collections {
		r.items[c] = make(map[string]*entry)
	}
	return r
}

func (r *contentRepository) lookup(collection model.Collection, id string) (*entry, error) {
	e, ok := r.items[collection][id]
	if !ok {
		return nil, ErrContentNotFound
	}
	return e, nil
}

// snapshot 生成对外的副本，计数由关联数据推导
func (r *contentRepository) snapshot(e *entry) model.ContentItem {
	item := e.item
	item.LikedUsers = append([]model.UserSummary{}, e.item.LikedUsers...)
	item.LikeCount = len(item.LikedUsers)
	item.CommentCount = len(e.comments)
	item.Comments = nil
	return item
}

func (r *contentRepository) Create(item *model.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.items[item.Collection]
	if !ok {
		return ErrContentNotFound
	}
	stored := *item
	stored.LikedUsers = append([]model.UserSummary{}, item.LikedUsers...)
	bucket[item.ID] = &entry{item: stored}
	r.order[item.Collection] = append(r.order[item.Collection], item.ID)
	return nil
}

func (r *contentRepository) GetByID(collection model.Collection, id string) (*model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(collection, id)
	if err != nil {
		return nil, err
	}
	item := r.snapshot(e)
	return &item, nil
}

// List 按插入顺序返回
func (r *contentRepository) List(collection model.Collection) ([]model.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ContentItem, 0, len(r.order[collection]))
	for _, id := range r.order[collection] {
		if e, ok := r.items[collection][id]; ok {
			out = append(out, r.snapshot(e))
		}
	}
	return out, nil
}

// Update 只覆盖可编辑字段，点赞和评论保持不变
func (r *contentRepository) Update(item *model.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(item.Collection, item.ID)
	if err != nil {
		return err
	}
	e.item.Title = item.Title
	e.item.Description = item.Description
	e.item.StartDate = item.StartDate
	e.item.EndDate = item.EndDate
	e.item.MediaURL = item.MediaURL
	e.item.UpdatedAt = item.UpdatedAt
	return nil
}

func (r *contentRepository) Delete(collection model.Collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(collection, id)
	if err != nil {
		return err
	}
	for _, cid := range e.comments {
		delete(r.comments, cid)
		delete(r.owner, cid)
	}
	delete(r.items[collection], id)
	ids := r.order[collection]
	for i, v := range ids {
		if v == id {
			r.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (r *contentRepository) ToggleLike(collection model.Collection, id string, user model.UserSummary) (model.LikeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(collection, id)
	if err != nil {
		return model.LikeState{}, err
	}

	liked := e.item.LikedUsers
	for i, u := range liked {
		if u.SameUser(user) {
			// Unlike
			e.item.LikedUsers = append(liked[:i:i], liked[i+1:]...)
			return model.LikeState{Liked: false, LikeCount: len(e.item.LikedUsers)}, nil
		}
	}
	// Like
	e.item.LikedUsers = append(liked, user)
	return model.LikeState{Liked: true, LikeCount: len(e.item.LikedUsers)}, nil
}

func (r *contentRepository) GetLikedUsers(collection model.Collection, id string) ([]model.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(collection, id)
	if err != nil {
		return nil, err
	}
	return append([]model.UserSummary{}, e.item.LikedUsers...), nil
}

func (r *contentRepository) CreateComment(collection model.Collection, comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(collection, comment.ContentID)
	if err != nil {
		return err
	}
	c := *comment
	r.comments[c.ID] = &c
	r.owner[c.ID] = collection
	e.comments = append(e.comments, c.ID)
	return nil
}

func (r *contentRepository) GetComment(collection model.Collection, commentID string) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[commentID]
	if !ok || r.owner[commentID] != collection {
		return nil, ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

// GetComments 按创建顺序返回
func (r *contentRepository) GetComments(collection model.Collection, contentID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(collection, contentID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Comment, 0, len(e.comments))
	for _, id := range e.comments {
		out = append(out, *r.comments[id])
	}
	return out, nil
}

// UpdateComment 只更新正文和修改时间
func (r *contentRepository) UpdateComment(collection model.Collection, comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[comment.ID]
	if !ok || r.owner[comment.ID] != collection {
		return ErrCommentNotFound
	}
	c.Text = comment.Text
	c.UpdatedAt = comment.UpdatedAt
	return nil
}

func (r *contentRepository) DeleteComment(collection model.Collection, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok || r.owner[commentID] != collection {
		return ErrCommentNotFound
	}
	if e, ok := r.items[collection][c.ContentID]; ok {
		for i, id := range e.comments {
			if id == commentID {
				e.comments = append(e.comments[:i:i], e.comments[i+1:]...)
				break
			}
		}
	}
	delete(r.comments, commentID)
	delete(r.owner, commentID)
	return nil
}

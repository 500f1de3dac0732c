package content

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
)

// Doer 适配器的最小接口
type Doer interface {
	Do(ctx context.Context, method, path string, body any, out any, opts ...apiclient.RequestOption) error
}

// Endpoints 某一内容类型的 REST 路径
type Endpoints struct {
	Collection model.Collection
}

func (e Endpoints) base() string {
	return "/api/" + url.PathEscape(string(e.Collection))
}

func (e Endpoints) List() string {
	return e.base()
}

func (e Endpoints) Item(id string) string {
	return e.base() + "/" + url.PathEscape(id)
}

func (e Endpoints) Like(id string) string {
	return e.Item(id) + "/like"
}

func (e Endpoints) LikedUsers(id string) string {
	return e.Item(id) + "/liked-users"
}

func (e Endpoints) Comments(id string) string {
	return e.Item(id) + "/comments"
}

// Comment 评论的修改/删除不带内容 id
func (e Endpoints) Comment(commentID string) string {
	return e.base() + "/comments/" + url.PathEscape(commentID)
}

// Draft 创建/修改内容的表单数据
type Draft struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	File        *Attachment
}

// Attachment 表单附件
type Attachment struct {
	FileName    string
	ContentType string
	Reader      io.Reader
}

// DateLayout 表单日期格式
const DateLayout = "2006-01-02"

func (d *Draft) multipart() *apiclient.Multipart {
	fields := map[string]string{
		"title":       d.Title,
		"description": d.Description,
	}
	if d.StartDate != nil {
		fields["startDate"] = d.StartDate.Format(DateLayout)
	}
	if d.EndDate != nil {
		fields["endDate"] = d.EndDate.Format(DateLayout)
	}
	mp := &apiclient.Multipart{Fields: fields}
	if d.File != nil {
		mp.File = &apiclient.FilePart{
			FieldName:   "file",
			FileName:    d.File.FileName,
			ContentType: d.File.ContentType,
			Reader:      d.File.Reader,
		}
	}
	return mp
}

// API 一种内容类型的后端接口
type API struct {
	doer Doer
	ep   Endpoints
	// 点赞列表、评论列表允许匿名读取
	anonymousReads bool
}

// NewAPI 创建内容接口
func NewAPI(doer Doer, collection model.Collection) (*API, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return &API{doer: doer, ep: Endpoints{Collection: collection}, anonymousReads: true}, nil
}

// RequireAuthForReads 读取点赞/评论列表也要求登录
func (a *API) RequireAuthForReads() *API {
	a.anonymousReads = false
	return a
}

func (a *API) Collection() model.Collection {
	return a.ep.Collection
}

func (a *API) readOpts() []apiclient.RequestOption {
	if a.anonymousReads {
		return []apiclient.RequestOption{apiclient.WithAnonymous()}
	}
	return nil
}

func (a *API) List(ctx context.Context) ([]model.ContentItem, error) {
	var items []model.ContentItem
	if err := a.doer.Do(ctx, "GET", a.ep.List(), nil, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].DedupLikedUsers()
	}
	return items, nil
}

func (a *API) Create(ctx context.Context, d *Draft) (*model.ContentItem, error) {
	var item model.ContentItem
	if err := a.doer.Do(ctx, "POST", a.ep.List(), d.multipart(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) Update(ctx context.Context, id string, d *Draft) (*model.ContentItem, error) {
	var item model.ContentItem
	if err := a.doer.Do(ctx, "PUT", a.ep.Item(id), d.multipart(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) Delete(ctx context.Context, id string) error {
	return a.doer.Do(ctx, "DELETE", a.ep.Item(id), nil, nil)
}

// ToggleLike 返回服务端原子的 {liked, likeCount}
func (a *API) ToggleLike(ctx context.Context, id string) (model.LikeState, error) {
	var st model.LikeState
	err := a.doer.Do(ctx, "PUT", a.ep.Like(id), nil, &st)
	return st, err
}

func (a *API) LikedUsers(ctx context.Context, id string) ([]model.UserSummary, error) {
	var users []model.UserSummary
	err := a.doer.Do(ctx, "GET", a.ep.LikedUsers(id), nil, &users, a.readOpts()...)
	return users, err
}

func (a *API) Comments(ctx context.Context, id string) ([]model.Comment, error) {
	var comments []model.Comment
	err := a.doer.Do(ctx, "GET", a.ep.Comments(id), nil, &comments, a.readOpts()...)
	return comments, err
}

func (a *API) CreateComment(ctx context.Context, id, text string) (*model.Comment, error) {
	var c model.Comment
	if err := a.doer.Do(ctx, "POST", a.ep.Comments(id), model.CommentInput{Text: text}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) UpdateComment(ctx context.Context, commentID, text string) (*model.Comment, error) {
	var c model.Comment
	if err := a.doer.Do(ctx, "PUT", a.ep.Comment(commentID), model.CommentInput{Text: text}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) DeleteComment(ctx context.Context, commentID string) error {
	return a.doer.Do(ctx, "DELETE", a.ep.Comment(commentID), nil, nil)
}

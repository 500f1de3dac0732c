package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"learnhub_client/internal/client/content"
	"learnhub_client/internal/client/interaction"
	"learnhub_client/internal/client/store"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/pkg/logger"

	"go.uber.org/zap"
)

// ErrSubmitInFlight 表单正在提交
var ErrSubmitInFlight = errors.New("form submission already in flight")

// ContentAPI 动态流需要的全部后端接口，由 content.API 实现
type ContentAPI interface {
	store.Lister
	interaction.API
	Create(ctx context.Context, d *content.Draft) (*model.ContentItem, error)
	Update(ctx context.Context, id string, d *content.Draft) (*model.ContentItem, error)
	Delete(ctx context.Context, id string) error
}

// Scope 动态流范围
type Scope int

const (
	// ScopePublic 公共动态，排除自己发布的
	ScopePublic Scope = iota
	// ScopeMine 个人主页"我的"
	ScopeMine
	ScopeAll
)

// Option 动态流选项
type Option func(*Feed)

func WithScope(s Scope) Option {
	return func(f *Feed) { f.scope = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Feed) { f.log = l }
}

// WithCardOptions 创建卡片控制器时附加的选项
func WithCardOptions(opts ...interaction.Option) Option {
	return func(f *Feed) { f.cardOpts = append(f.cardOpts, opts...) }
}

// Feed 把表单、实体集合和卡片控制器绑定在一起
type Feed struct {
	api    ContentAPI
	store  *store.EntityStore
	viewer model.Viewer
	log    *zap.Logger

	cardOpts []interaction.Option

	mu         sync.Mutex
	scope      Scope
	cards      map[string]*interaction.Controller
	submitting bool
	deleting   map[string]bool
}

// New viewer 由会话派生，传给每张卡片做"是否本人/是否已赞"判断
func New(api ContentAPI, viewer model.Viewer, opts ...Option) *Feed {
	f := &Feed{
		api:      api,
		viewer:   viewer,
		cards:    make(map[string]*interaction.Controller),
		deleting: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = logger.OrNop(f.log)
	f.store = store.NewEntityStore(api, f.log)
	return f
}

func (f *Feed) filter() store.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.scope {
	case ScopePublic:
		return store.ExcludeAuthor(f.viewer.Email)
	case ScopeMine:
		return store.OnlyAuthor(f.viewer.Email)
	}
	return store.All()
}

// Mount 首次渲染时加载
func (f *Feed) Mount(ctx context.Context) ([]model.ContentItem, error) {
	items, err := f.store.Load(ctx, f.filter())
	if err != nil {
		return nil, err
	}
	f.pruneCards()
	return items, nil
}

// SetScope 切换范围后重新加载
func (f *Feed) SetScope(ctx context.Context, s Scope) ([]model.ContentItem, error) {
	f.mu.Lock()
	f.scope = s
	f.mu.Unlock()
	return f.Mount(ctx)
}

// Items 最新的在前
func (f *Feed) Items() []model.ContentItem {
	return f.store.Items()
}

func (f *Feed) Viewer() model.Viewer {
	return f.viewer
}

// Card 返回内容对应的卡片控制器，按需创建；占位条目和不存在的条目返回 nil
func (f *Feed) Card(id string) *interaction.Controller {
	if store.IsPlaceholder(id) {
		return nil
	}
	item, ok := f.store.Get(id)
	if !ok {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cards[id]; ok {
		return c
	}
	c := interaction.NewController(item, f.viewer, f.api, f.cardOpts...)
	f.cards[id] = c
	return c
}

// Cards 按展示顺序返回所有已确认条目的卡片
func (f *Feed) Cards() []*interaction.Controller {
	items := f.store.Items()
	out := make([]*interaction.Controller, 0, len(items))
	for _, it := range items {
		if c := f.Card(it.ID); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Submit 提交创建表单：先插入占位，服务端确认后替换并清空表单；
// 失败时移除占位，表单内容保留
func (f *Feed) Submit(ctx context.Context, form *Form) (*model.ContentItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if f.viewer.Anonymous() {
		return nil, apiclient.Unauthenticated()
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	d := form.draft()
	keep := f.filter()
	optimistic := model.ContentItem{
		Author:      f.viewer.Summary(),
		Title:       d.Title,
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		CreatedAt:   time.Now(),
	}
	// 不属于当前范围的条目(如公共动态里自己的新帖)不进入集合
	placeholder := ""
	if keep(&optimistic) {
		placeholder = f.store.InsertOptimistic(optimistic)
	}

	created, err := f.api.Create(ctx, d)
	if err != nil {
		if placeholder != "" {
			f.store.Discard(placeholder)
		}
		f.log.Warn("create content failed", zap.Error(err))
		return nil, err
	}
	switch {
	case keep(created) && placeholder != "":
		f.store.Confirm(placeholder, *created)
	case keep(created):
		f.store.Insert(*created)
	case placeholder != "":
		f.store.Discard(placeholder)
	}
	form.Reset()

	f.log.Info("content created", zap.String("id", created.ID))
	return created, nil
}

// Update 修改已有内容，成功后替换集合中的条目
func (f *Feed) Update(ctx context.Context, id string, form *Form) (*model.ContentItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if _, ok := f.store.Get(id); !ok {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Message: "content " + id + " is not in this feed"}
	}

	updated, err := f.api.Update(ctx, id, form.draft())
	if err != nil {
		return nil, err
	}
	if f.filter()(updated) {
		f.store.Replace(id, *updated)
	} else {
		f.store.Remove(id)
		f.closeCard(id)
	}
	form.Reset()
	return updated, nil
}

// Delete 删除内容，confirm 返回 false 时什么都不做
func (f *Feed) Delete(ctx context.Context, id string, confirm func(model.ContentItem) bool) (bool, error) {
	item, ok := f.store.Get(id)
	if !ok {
		return false, &apiclient.Error{Kind: apiclient.KindNotFound, Message: "content " + id + " is not in this feed"}
	}
	if !f.viewer.Owns(item.Author) {
		return false, &apiclient.Error{Kind: apiclient.KindForbidden, Message: "only the author can delete this content"}
	}
	if confirm == nil || !confirm(item) {
		return false, nil
	}

	f.mu.Lock()
	if f.deleting[id] {
		f.mu.Unlock()
		return false, interaction.ErrInFlight
	}
	f.deleting[id] = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.deleting, id)
		f.mu.Unlock()
	}()

	if err := f.api.Delete(ctx, id); err != nil {
		return false, err
	}
	f.store.Remove(id)
	f.closeCard(id)
	return true, nil
}

// Close 卸载动态流，关闭所有卡片
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.cards {
		c.Close()
		delete(f.cards, id)
	}
}

func (f *Feed) closeCard(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cards[id]; ok {
		c.Close()
		delete(f.cards, id)
	}
}

// pruneCards 关闭已不在集合中的卡片
func (f *Feed) pruneCards() {
	f.mu.Lock()
	ids := make([]string, 0, len(f.cards))
	for id := range f.cards {
		ids = append(ids, id)
	}
	f.mu.Unlock()

	for _, id := range ids {
		if _, ok := f.store.Get(id); !ok {
			f.closeCard(id)
		}
	}
}

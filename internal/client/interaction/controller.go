package interaction

import (
	"context"
	"errors"
	"strings"
	"sync"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/pkg/logger"
	"learnhub_client/pkg/metrics"

	"go.uber.org/zap"
)

// API 单个内容的点赞/评论接口，由 content.API 实现
type API interface {
	ToggleLike(ctx context.Context, id string) (model.LikeState, error)
	LikedUsers(ctx context.Context, id string) ([]model.UserSummary, error)
	Comments(ctx context.Context, id string) ([]model.Comment, error)
	CreateComment(ctx context.Context, id, text string) (*model.Comment, error)
	UpdateComment(ctx context.Context, commentID, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// ListState 评论列表状态
type ListState int

const (
	Unloaded ListState = iota
	Loading
	Loaded
	Failed
)

func (s ListState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Confirmer 删除前的阻塞确认，返回 false 表示取消
type Confirmer func(c model.Comment) bool

// Option 控制器选项
type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithReloadAfterMutation 评论增删改成功后整体重新拉取列表
func WithReloadAfterMutation() Option {
	return func(c *Controller) { c.reloadAfterMutation = true }
}

// Controller 一张内容卡片的点赞与评论同步。
// 服务端是唯一可信来源：点赞只在收到 {liked, likeCount} 后整体替换，
// 评论只在请求成功后修改。同类操作互斥，不同类操作可以并行。
type Controller struct {
	api    API
	itemID string
	viewer model.Viewer

	notifier            Notifier
	log                 *zap.Logger
	metrics             *metrics.MetricsCollector
	reloadAfterMutation bool

	mu     sync.Mutex
	closed bool

	liked       bool
	likeCount   int
	likePending bool

	listState ListState
	listErr   error
	listGen   uint64
	comments  []model.Comment
	pending   map[string]pendingChange // 加载期间完成的增删改，加载结果到达后合并

	draft    string
	creating bool

	editID    string
	editDraft string
	saving    bool

	deleting map[string]bool
}

// NewController 以内容快照初始化点赞状态，评论列表为未加载
func NewController(item model.ContentItem, viewer model.Viewer, api API, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		itemID:    item.ID,
		viewer:    viewer,
		liked:     item.LikedBy(viewer.Email),
		likeCount: item.LikeCount,
		deleting:  make(map[string]bool),
		pending:   make(map[string]pendingChange),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).With(zap.String("item_id", item.ID))
	if c.notifier == nil {
		c.notifier = NewLogNotifier(c.log)
	}
	return c
}

func (c *Controller) ItemID() string {
	return c.itemID
}

func (c *Controller) Viewer() model.Viewer {
	return c.viewer
}

// Close 卡片销毁，之后返回的请求结果都会被丢弃
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// ToggleLike 切换点赞。已有请求进行中时返回 ErrInFlight，不排队。
// 失败时保持原有状态，不做乐观修改。
func (c *Controller) ToggleLike(ctx context.Context) (model.LikeState, error) {
	c.mu.Lock()
	prev := model.LikeState{Liked: c.liked, LikeCount: c.likeCount}
	if c.closed {
		c.mu.Unlock()
		return prev, ErrClosed
	}
	if c.likePending {
		c.mu.Unlock()
		c.record(OpLikeToggle, "in_flight")
		return prev, ErrInFlight
	}
	c.likePending = true
	c.mu.Unlock()

	st, err := c.api.ToggleLike(ctx, c.itemID)

	c.mu.Lock()
	c.likePending = false
	if c.closed {
		c.mu.Unlock()
		return prev, ErrClosed
	}
	if err != nil {
		cur := model.LikeState{Liked: c.liked, LikeCount: c.likeCount}
		c.mu.Unlock()
		c.fail(OpLikeToggle, err)
		return cur, err
	}
	c.liked, c.likeCount = st.Liked, st.LikeCount
	c.mu.Unlock()

	c.record(OpLikeToggle, "success")
	return st, nil
}

// LikeState 当前点赞状态
func (c *Controller) LikeState() model.LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.LikeState{Liked: c.liked, LikeCount: c.likeCount}
}

// LikedUsers 查看点赞用户，不影响点赞计数
func (c *Controller) LikedUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := c.api.LikedUsers(ctx, c.itemID)
	if err != nil {
		c.fail(OpLikedUsers, err)
		return nil, err
	}
	return users, nil
}

// EnsureComments 首次需要时加载评论，已加载则直接返回
func (c *Controller) EnsureComments(ctx context.Context) ([]model.Comment, error) {
	c.mu.Lock()
	state := c.listState
	c.mu.Unlock()
	if state == Loaded {
		return c.Comments(), nil
	}
	return c.LoadComments(ctx)
}

// LoadComments 整体拉取评论。加载中再次调用返回 ErrInFlight
func (c *Controller) LoadComments(ctx context.Context) ([]model.Comment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.listState == Loading {
		c.mu.Unlock()
		return nil, ErrInFlight
	}
	c.mu.Unlock()
	return c.reload(ctx)
}

// reload 开始新一轮加载，较早发出的加载结果会被丢弃
func (c *Controller) reload(ctx context.Context) ([]model.Comment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.listGen++
	gen := c.listGen
	c.listState = Loading
	c.listErr = nil
	c.mu.Unlock()

	list, err := c.api.Comments(ctx, c.itemID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if gen != c.listGen {
		// 已被更新的加载取代
		out := cloneComments(c.comments)
		c.mu.Unlock()
		return out, nil
	}
	if err != nil {
		c.listState = Failed
		c.listErr = err
		clear(c.pending)
		c.mu.Unlock()
		c.fail(OpLoadComments, err)
		return nil, err
	}
	c.comments = mergePending(uniqueByID(list), c.pending)
	clear(c.pending)
	model.SortNewestFirst(c.comments)
	c.listState = Loaded
	out := cloneComments(c.comments)
	c.mu.Unlock()
	return out, nil
}

// SetDraft 更新评论输入框
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// SubmitComment 提交输入框中的评论。
// 空白内容本地拒绝；提交中再次调用返回 ErrInFlight；失败保留输入内容
func (c *Controller) SubmitComment(ctx context.Context) (*model.Comment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.creating {
		c.mu.Unlock()
		c.record(OpCreateComment, "in_flight")
		return nil, ErrInFlight
	}
	text := strings.TrimSpace(c.draft)
	if text == "" {
		c.mu.Unlock()
		err := emptyText()
		c.fail(OpCreateComment, err)
		return nil, err
	}
	c.creating = true
	c.mu.Unlock()

	created, err := c.api.CreateComment(ctx, c.itemID, text)

	c.mu.Lock()
	c.creating = false
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(OpCreateComment, err)
		return nil, err
	}
	c.draft = ""
	switch c.listState {
	case Loaded:
		c.comments = append([]model.Comment{*created}, removeByID(c.comments, created.ID)...)
	case Loading:
		c.pending[created.ID] = pendingChange{comment: *created}
	}
	c.mu.Unlock()

	c.succeed(OpCreateComment, "Comment added")
	c.afterMutation(ctx)
	return created, nil
}

// AddComment 等价于 SetDraft 后 SubmitComment
func (c *Controller) AddComment(ctx context.Context, text string) (*model.Comment, error) {
	c.SetDraft(text)
	return c.SubmitComment(ctx)
}

// CanEdit 只有作者本人可以修改/删除，服务端会再次校验
func (c *Controller) CanEdit(comment model.Comment) bool {
	return c.viewer.Owns(comment.Author)
}

// BeginEdit 进入编辑模式，同一时间只编辑一条，其他未保存的草稿被丢弃
func (c *Controller) BeginEdit(commentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	cm, ok := findByID(c.comments, commentID)
	if !ok {
		return ErrCommentNotFound
	}
	if !c.viewer.Owns(cm.Author) {
		return notOwner()
	}
	c.editID = cm.ID
	c.editDraft = cm.Text
	return nil
}

// SetEditDraft 更新编辑中的文本
func (c *Controller) SetEditDraft(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editID == "" {
		return ErrNotEditing
	}
	c.editDraft = text
	return nil
}

// CancelEdit 退出编辑模式并丢弃草稿
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editID = ""
	c.editDraft = ""
}

// SaveEdit 保存编辑。失败时保持编辑模式和草稿，便于重试或取消
func (c *Controller) SaveEdit(ctx context.Context) (*model.Comment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.editID == "" {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}
	if c.saving {
		c.mu.Unlock()
		c.record(OpUpdateComment, "in_flight")
		return nil, ErrInFlight
	}
	id := c.editID
	text := strings.TrimSpace(c.editDraft)
	if text == "" {
		c.mu.Unlock()
		err := emptyText()
		c.fail(OpUpdateComment, err)
		return nil, err
	}
	c.saving = true
	c.mu.Unlock()

	updated, err := c.api.UpdateComment(ctx, id, text)

	c.mu.Lock()
	c.saving = false
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(OpUpdateComment, err)
		return nil, err
	}
	// 只替换文本类字段，id/作者/创建时间不变
	for i := range c.comments {
		if c.comments[i].ID == id {
			c.comments[i].Text = updated.Text
			c.comments[i].UpdatedAt = updated.UpdatedAt
			*updated = c.comments[i]
			break
		}
	}
	if c.listState == Loading {
		c.pending[id] = pendingChange{comment: *updated}
	}
	if c.editID == id {
		c.editID = ""
		c.editDraft = ""
	}
	c.mu.Unlock()

	c.succeed(OpUpdateComment, "Comment updated")
	c.afterMutation(ctx)
	return updated, nil
}

// DeleteComment 删除评论。confirm 返回 false 时不发请求，列表不变。
// 返回值表示是否已删除
func (c *Controller) DeleteComment(ctx context.Context, commentID string, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	cm, ok := findByID(c.comments, commentID)
	if !ok {
		c.mu.Unlock()
		return false, ErrCommentNotFound
	}
	if !c.viewer.Owns(cm.Author) {
		c.mu.Unlock()
		return false, notOwner()
	}
	if c.deleting[commentID] {
		c.mu.Unlock()
		c.record(OpDeleteComment, "in_flight")
		return false, ErrInFlight
	}
	c.mu.Unlock()

	if confirm == nil || !confirm(cm) {
		c.record(OpDeleteComment, "declined")
		return false, nil
	}

	c.mu.Lock()
	if c.deleting[commentID] {
		c.mu.Unlock()
		return false, ErrInFlight
	}
	c.deleting[commentID] = true
	c.mu.Unlock()

	err := c.api.DeleteComment(ctx, commentID)

	c.mu.Lock()
	delete(c.deleting, commentID)
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.fail(OpDeleteComment, err)
		return false, err
	}
	c.comments = removeByID(c.comments, commentID)
	if c.listState == Loading {
		c.pending[commentID] = pendingChange{deleted: true}
	}
	if c.editID == commentID {
		c.editID = ""
		c.editDraft = ""
	}
	c.mu.Unlock()

	c.succeed(OpDeleteComment, "Comment deleted")
	c.afterMutation(ctx)
	return true, nil
}

// Comments 当前评论列表的副本
func (c *Controller) Comments() []model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneComments(c.comments)
}

func (c *Controller) afterMutation(ctx context.Context) {
	if !c.reloadAfterMutation {
		return
	}
	if _, err := c.reload(ctx); err != nil && !errors.Is(err, ErrClosed) {
		c.log.Warn("reload comments after mutation failed", zap.Error(err))
	}
}

func (c *Controller) succeed(op Operation, msg string) {
	c.record(op, "success")
	c.notifier.Success(op, msg)
}

func (c *Controller) fail(op Operation, err error) {
	c.record(op, "failure")
	c.notifier.Failure(op, err)
}

func (c *Controller) record(op Operation, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordInteraction(string(op), outcome)
	}
}

type pendingChange struct {
	comment model.Comment
	deleted bool
}

// mergePending 把加载期间已确认的修改应用到加载结果上，按 id 合并
func mergePending(list []model.Comment, pending map[string]pendingChange) []model.Comment {
	if len(pending) == 0 {
		return list
	}
	seen := make(map[string]bool, len(list))
	out := make([]model.Comment, 0, len(list)+len(pending))
	for _, cm := range list {
		seen[cm.ID] = true
		if p, ok := pending[cm.ID]; ok {
			if p.deleted {
				continue
			}
			cm.Text = p.comment.Text
			cm.UpdatedAt = p.comment.UpdatedAt
		}
		out = append(out, cm)
	}
	for id, p := range pending {
		if !p.deleted && !seen[id] {
			out = append(out, p.comment)
		}
	}
	return out
}

func findByID(list []model.Comment, id string) (model.Comment, bool) {
	for _, cm := range list {
		if cm.ID == id {
			return cm, true
		}
	}
	return model.Comment{}, false
}

func removeByID(list []model.Comment, id string) []model.Comment {
	out := make([]model.Comment, 0, len(list))
	for _, cm := range list {
		if cm.ID != id {
			out = append(out, cm)
		}
	}
	return out
}

func uniqueByID(list []model.Comment) []model.Comment {
	seen := make(map[string]bool, len(list))
	out := make([]model.Comment, 0, len(list))
	for _, cm := range list {
		if seen[cm.ID] {
			continue
		}
		seen[cm.ID] = true
		out = append(out, cm)
	}
	return out
}

func cloneComments(list []model.Comment) []model.Comment {
	if list == nil {
		return nil
	}
	return append([]model.Comment(nil), list...)
}

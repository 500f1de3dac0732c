package interaction

import "learnhub_client/internal/domain/content/model"

// View 卡片渲染所需的全部状态
type View struct {
	ItemID string

	Liked       bool
	LikeCount   int
	LikePending bool

	CommentState ListState
	CommentErr   error
	Comments     []model.Comment
	Stats        model.CommentStats

	Draft      string
	Submitting bool

	EditingID string
	EditDraft string
	Saving    bool

	Deleting []string
}

// ShowEmpty 只有真正加载完且为空时才显示"暂无评论"
func (v View) ShowEmpty() bool {
	return v.CommentState == Loaded && len(v.Comments) == 0
}

// Snapshot 当前状态快照
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		ItemID:       c.itemID,
		Liked:        c.liked,
		LikeCount:    c.likeCount,
		LikePending:  c.likePending,
		CommentState: c.listState,
		CommentErr:   c.listErr,
		Comments:     cloneComments(c.comments),
		Stats:        model.StatsOf(c.comments),
		Draft:        c.draft,
		Submitting:   c.creating,
		EditingID:    c.editID,
		EditDraft:    c.editDraft,
		Saving:       c.saving,
	}
	for id := range c.deleting {
		v.Deleting = append(v.Deleting, id)
	}
	return v
}

package model

import (
	"sort"
	"time"
)

// Comment 评论, 归属于唯一的 ContentItem，无楼中楼
type Comment struct {
	ID        string      `json:"id"`
	ContentID string      `json:"contentId"`
	Author    UserSummary `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CommentInput 创建/修改评论请求体
type CommentInput struct {
	Text string `json:"text" binding:"required"`
}

// CommentStats 评论计数
// 不同功能对"评论数"的口径不同，两种都给出，由调用方显式选择
type CommentStats struct {
	TotalComments    int `json:"totalComments"`
	UniqueCommenters int `json:"uniqueCommenters"`
}

// StatsOf 统计评论总数与去重后的评论人数
func StatsOf(comments []Comment) CommentStats {
	seen := make([]UserSummary, 0, len(comments))
	for _, c := range comments {
		dup := false
		for _, u := range seen {
			if u.SameUser(c.Author) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, c.Author)
		}
	}
	return CommentStats{
		TotalComments:    len(comments),
		UniqueCommenters: len(seen),
	}
}

// SortNewestFirst 按创建时间倒序，后端不保证顺序
func SortNewestFirst(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}

package model

import (
	"strings"
	"time"
)

// Collection 内容类型, 同时也是 REST 路径前缀
type Collection string

const (
	CollectionGoals            Collection = "goals"
	CollectionSkills           Collection = "skills"
	CollectionLearningPlans    Collection = "learning-plans"
	CollectionLearningProgress Collection = "learning-progress"
)

// Collections 全部内容类型
var Collections = []Collection{
	CollectionGoals,
	CollectionSkills,
	CollectionLearningPlans,
	CollectionLearningProgress,
}

func (c Collection) Valid() bool {
	for _, v := range Collections {
		if c == v {
			return true
		}
	}
	return false
}

func (c Collection) String() string {
	return string(c)
}

// UserSummary 作者/点赞用户摘要，由后端维护
type UserSummary struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// SameUser 按 id 或 email 判断是否同一用户
func (u UserSummary) SameUser(o UserSummary) bool {
	if u.ID != "" && u.ID == o.ID {
		return true
	}
	return u.Email != "" && strings.EqualFold(u.Email, o.Email)
}

// ContentItem 目标/技能分享/学习计划/学习进度 的通用内容
type ContentItem struct {
	ID           string        `json:"id"`
	Collection   Collection    `json:"collection"`
	Author       UserSummary   `json:"author"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	StartDate    *time.Time    `json:"startDate,omitempty"`
	EndDate      *time.Time    `json:"endDate,omitempty"`
	MediaURL     string        `json:"mediaUrl,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	LikeCount    int           `json:"likeCount"`
	LikedUsers   []UserSummary `json:"likedUsers"`
	CommentCount int           `json:"commentCount"`
	Comments     []Comment     `json:"comments,omitempty"`
}

// LikedBy 当前浏览者是否已点赞
func (c *ContentItem) LikedBy(email string) bool {
	if email == "" {
		return false
	}
	for _, u := range c.LikedUsers {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// AuthoredBy 是否由该用户发布
func (c *ContentItem) AuthoredBy(email string) bool {
	return email != "" && strings.EqualFold(c.Author.Email, email)
}

// DedupLikedUsers 按用户身份去重，并同步 LikeCount
func (c *ContentItem) DedupLikedUsers() {
	out := c.LikedUsers[:0]
	for _, u := range c.LikedUsers {
		dup := false
		for _, seen := range out {
			if seen.SameUser(u) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, u)
		}
	}
	c.LikedUsers = out
	c.LikeCount = len(out)
}

// LikeState 点赞切换接口的原子响应
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// LikeStateFor 从内容快照推导浏览者的点赞状态
func LikeStateFor(item *ContentItem, viewer Viewer) LikeState {
	return LikeState{
		Liked:     item.LikedBy(viewer.Email),
		LikeCount: item.LikeCount,
	}
}

// Viewer 当前登录用户，由会话派生并下发到每张卡片
type Viewer struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (v Viewer) Anonymous() bool {
	return v.ID == "" && v.Email == ""
}

// Owns 判断用户摘要是否就是当前浏览者
func (v Viewer) Owns(u UserSummary) bool {
	if v.ID != "" && v.ID == u.ID {
		return true
	}
	return v.Email != "" && strings.EqualFold(v.Email, u.Email)
}

func (v Viewer) Summary() UserSummary {
	return UserSummary{ID: v.ID, Email: v.Email, Username: v.Username}
}

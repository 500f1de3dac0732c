package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupLikedUsers(t *testing.T) {
	item := &ContentItem{
		LikedUsers: []UserSummary{
			{ID: "u1", Email: "a@x.com"},
			{ID: "u2", Email: "b@x.com"},
			{Email: "A@x.com"},
			{ID: "u2"},
		},
		LikeCount: 4,
	}

	item.DedupLikedUsers()

	assert.Len(t, item.LikedUsers, 2)
	assert.Equal(t, 2, item.LikeCount)
	assert.True(t, item.LikedBy("a@x.com"))
	assert.False(t, item.LikedBy("c@x.com"))
	assert.False(t, item.LikedBy(""))
}

func TestStatsOf(t *testing.T) {
	comments := []Comment{
		{ID: "c1", Author: UserSummary{ID: "u1", Email: "a@x.com"}},
		{ID: "c2", Author: UserSummary{ID: "u1", Email: "a@x.com"}},
		{ID: "c3", Author: UserSummary{ID: "u2", Email: "b@x.com"}},
	}

	stats := StatsOf(comments)

	assert.Equal(t, 3, stats.TotalComments)
	assert.Equal(t, 2, stats.UniqueCommenters)
	assert.Equal(t, CommentStats{}, StatsOf(nil))
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	comments := []Comment{
		{ID: "old", CreatedAt: now.Add(-time.Hour)},
		{ID: "new", CreatedAt: now},
		{ID: "mid", CreatedAt: now.Add(-time.Minute)},
	}

	SortNewestFirst(comments)

	assert.Equal(t, "new", comments[0].ID)
	assert.Equal(t, "mid", comments[1].ID)
	assert.Equal(t, "old", comments[2].ID)
}

func TestViewerOwns(t *testing.T) {
	v := Viewer{ID: "u1", Email: "a@x.com"}

	assert.True(t, v.Owns(UserSummary{ID: "u1"}))
	assert.True(t, v.Owns(UserSummary{Email: "A@X.com"}))
	assert.False(t, v.Owns(UserSummary{ID: "u2", Email: "b@x.com"}))
	assert.True(t, Viewer{}.Anonymous())
	assert.True(t, CollectionLearningPlans.Valid())
	assert.False(t, Collection("posts").Valid())
}

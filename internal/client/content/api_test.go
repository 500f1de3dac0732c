package content

import (
	"context"
	"testing"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   any
	opts   int
}

// recordingDoer 记录请求并按路径返回预设结果
type recordingDoer struct {
	calls []call
	fill  func(out any)
	err   error
}

func (d *recordingDoer) Do(ctx context.Context, method, path string, body any, out any, opts ...apiclient.RequestOption) error {
	d.calls = append(d.calls, call{method: method, path: path, body: body, opts: len(opts)})
	if d.err != nil {
		return d.err
	}
	if d.fill != nil && out != nil {
		d.fill(out)
	}
	return nil
}

func TestNewAPIRejectsUnknownCollection(t *testing.T) {
	_, err := NewAPI(&recordingDoer{}, model.Collection("recipes"))
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	ep := Endpoints{Collection: model.CollectionLearningPlans}
	assert.Equal(t, "/api/learning-plans", ep.List())
	assert.Equal(t, "/api/learning-plans/p1", ep.Item("p1"))
	assert.Equal(t, "/api/learning-plans/p1/like", ep.Like("p1"))
	assert.Equal(t, "/api/learning-plans/p1/liked-users", ep.LikedUsers("p1"))
	assert.Equal(t, "/api/learning-plans/p1/comments", ep.Comments("p1"))
	assert.Equal(t, "/api/learning-plans/comments/c1", ep.Comment("c1"))
}

func TestReadsAreAnonymousByDefault(t *testing.T) {
	doer := &recordingDoer{}
	api, err := NewAPI(doer, model.CollectionGoals)
	require.NoError(t, err)

	_, _ = api.LikedUsers(context.Background(), "g1")
	_, _ = api.Comments(context.Background(), "g1")
	_, _ = api.ToggleLike(context.Background(), "g1")

	require.Len(t, doer.calls, 3)
	assert.Equal(t, 1, doer.calls[0].opts)
	assert.Equal(t, 1, doer.calls[1].opts)
	assert.Equal(t, call{method: "PUT", path: "/api/goals/g1/like"}, doer.calls[2])

	doer.calls = nil
	api.RequireAuthForReads()
	_, _ = api.Comments(context.Background(), "g1")
	assert.Equal(t, 0, doer.calls[0].opts)
}

func TestListDedupsLikedUsers(t *testing.T) {
	doer := &recordingDoer{fill: func(out any) {
		*out.(*[]model.ContentItem) = []model.ContentItem{{
			ID:        "g1",
			LikeCount: 3,
			LikedUsers: []model.UserSummary{
				{ID: "u1", Email: "a@x.com"},
				{ID: "u1", Email: "a@x.com"},
				{ID: "u2", Email: "b@x.com"},
			},
		}}
	}}
	api, err := NewAPI(doer, model.CollectionGoals)
	require.NoError(t, err)

	items, err := api.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Len(t, items[0].LikedUsers, 2)
	assert.Equal(t, 2, items[0].LikeCount)
}

func TestCreateSendsMultipart(t *testing.T) {
	doer := &recordingDoer{fill: func(out any) {
		out.(*model.ContentItem).ID = "s1"
	}}
	api, err := NewAPI(doer, model.CollectionSkills)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	item, err := api.Create(context.Background(), &Draft{Title: "Go", Description: "tour", StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, "s1", item.ID)

	require.Len(t, doer.calls, 1)
	mp, ok := doer.calls[0].body.(*apiclient.Multipart)
	require.True(t, ok)
	assert.Equal(t, "Go", mp.Fields["title"])
	assert.Equal(t, "2024-03-01", mp.Fields["startDate"])
	_, hasEnd := mp.Fields["endDate"]
	assert.False(t, hasEnd)
	assert.Nil(t, mp.File)
}

func TestCommentMutations(t *testing.T) {
	doer := &recordingDoer{fill: func(out any) {
		if c, ok := out.(*model.Comment); ok {
			c.ID = "c1"
		}
	}}
	api, err := NewAPI(doer, model.CollectionGoals)
	require.NoError(t, err)

	c, err := api.CreateComment(context.Background(), "g1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	_, err = api.UpdateComment(context.Background(), "c1", "edited")
	require.NoError(t, err)
	require.NoError(t, api.DeleteComment(context.Background(), "c1"))

	assert.Equal(t, "POST", doer.calls[0].method)
	assert.Equal(t, "/api/goals/g1/comments", doer.calls[0].path)
	assert.Equal(t, model.CommentInput{Text: "hello"}, doer.calls[0].body)
	assert.Equal(t, "PUT", doer.calls[1].method)
	assert.Equal(t, "/api/goals/comments/c1", doer.calls[1].path)
	assert.Equal(t, "DELETE", doer.calls[2].method)
}

func TestErrorsPropagate(t *testing.T) {
	doer := &recordingDoer{err: &apiclient.Error{Kind: apiclient.KindServer, Status: 500, Message: "boom"}}
	api, err := NewAPI(doer, model.CollectionGoals)
	require.NoError(t, err)

	_, err = api.CreateComment(context.Background(), "g1", "hello")
	assert.True(t, apiclient.IsKind(err, apiclient.KindServer))
}

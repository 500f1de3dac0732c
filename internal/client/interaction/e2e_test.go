package interaction_test

import (
	"context"
	"testing"

	"learnhub_client/internal/client/content"
	"learnhub_client/internal/client/interaction"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/server/servertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, api *content.API, title string) model.ContentItem {
	t.Helper()
	item, err := api.Create(context.Background(), &content.Draft{Title: title, Description: "desc"})
	require.NoError(t, err)
	return *item
}

func TestLikeScenarioAgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	alice := srv.Login(t, "a@x.com")
	api := alice.API(t, model.CollectionGoals)
	item := publish(t, api, "Run a marathon")
	require.Empty(t, item.LikedUsers)
	require.Equal(t, 0, item.LikeCount)

	card := interaction.NewController(item, alice.Viewer, api)
	ctx := context.Background()

	st, err := card.ToggleLike(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Liked: true, LikeCount: 1}, st)
	view := card.Snapshot()
	assert.True(t, view.Liked)
	assert.Equal(t, 1, view.LikeCount)

	st, err = card.ToggleLike(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Liked: false, LikeCount: 0}, st)
	assert.Equal(t, st, card.LikeState())
}

func TestToggleTwiceRestoresOriginalState(t *testing.T) {
	srv := servertest.Start(t)
	alice := srv.Login(t, "a@x.com")
	bob := srv.Login(t, "b@x.com")

	item := publish(t, alice.API(t, model.CollectionSkills), "Go generics")
	// bob 先点赞，使初始计数不为零
	_, err := bob.API(t, model.CollectionSkills).ToggleLike(context.Background(), item.ID)
	require.NoError(t, err)

	items, err := alice.API(t, model.CollectionSkills).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	card := interaction.NewController(items[0], alice.Viewer, alice.API(t, model.CollectionSkills))
	original := card.LikeState()
	assert.Equal(t, model.LikeState{Liked: false, LikeCount: 1}, original)

	_, err = card.ToggleLike(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Liked: true, LikeCount: 2}, card.LikeState())

	_, err = card.ToggleLike(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original, card.LikeState())
}

func TestCommentRoundTripAgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	alice := srv.Login(t, "a@x.com")
	bob := srv.Login(t, "b@x.com")
	item := publish(t, alice.API(t, model.CollectionLearningPlans), "Plan")

	card := interaction.NewController(item, bob.Viewer, bob.API(t, model.CollectionLearningPlans))
	ctx := context.Background()

	_, err := card.AddComment(ctx, "hello")
	require.NoError(t, err)

	comments, err := card.LoadComments(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "hello", comments[0].Text)
	assert.Equal(t, bob.Viewer.Email, comments[0].Author.Email)
	assert.Equal(t, bob.Viewer.ID, comments[0].Author.ID)
	assert.True(t, card.CanEdit(comments[0]))

	// 作者以外的用户不能修改
	aliceCard := interaction.NewController(item, alice.Viewer, alice.API(t, model.CollectionLearningPlans))
	_, err = aliceCard.LoadComments(ctx)
	require.NoError(t, err)
	assert.False(t, aliceCard.CanEdit(comments[0]))
	_, err = alice.API(t, model.CollectionLearningPlans).UpdateComment(ctx, comments[0].ID, "mine now")
	assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden))

	require.NoError(t, card.BeginEdit(comments[0].ID))
	require.NoError(t, card.SetEditDraft("hello again"))
	updated, err := card.SaveEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Text)
	assert.Equal(t, comments[0].CreatedAt.Unix(), updated.CreatedAt.Unix())

	ok, err := card.DeleteComment(ctx, comments[0].ID, func(model.Comment) bool { return true })
	require.NoError(t, err)
	assert.True(t, ok)

	comments, err = card.LoadComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.True(t, card.Snapshot().ShowEmpty())
}

func TestAnonymousReadsAgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	alice := srv.Login(t, "a@x.com")
	item := publish(t, alice.API(t, model.CollectionGoals), "Goal")
	_, err := alice.API(t, model.CollectionGoals).ToggleLike(context.Background(), item.ID)
	require.NoError(t, err)

	anon, err := content.NewAPI(srv.Anonymous(), model.CollectionGoals)
	require.NoError(t, err)

	users, err := anon.LikedUsers(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)

	// 未登录时点赞在本地即被拒绝
	_, err = anon.ToggleLike(context.Background(), item.ID)
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnauthenticated))
}

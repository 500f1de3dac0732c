package feed_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"learnhub_client/internal/client/feed"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/server/servertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

func emails(items []model.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Author.Email)
	}
	return out
}

func TestProfileTabsAgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	a := srv.Login(t, "a@x.com")
	b := srv.Login(t, "b@x.com")
	ctx := context.Background()

	limits := feed.Limits{MaxBytes: 1 << 20, AllowedTypes: []string{"image/png"}}
	for _, u := range []*servertest.User{a, b} {
		f := feed.New(u.API(t, model.CollectionGoals), u.Viewer)
		form := feed.NewForm(nil, limits)
		form.SetTitle("goal of " + u.Viewer.Email)
		form.SetDescription("finish it")
		_, err := f.Submit(ctx, form)
		require.NoError(t, err)
		assert.Empty(t, f.Items(), "own post must stay out of the public feed")
	}

	public := feed.New(a.API(t, model.CollectionGoals), a.Viewer, feed.WithScope(feed.ScopePublic))
	items, err := public.Mount(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, emails(items))

	items, err = public.SetScope(ctx, feed.ScopeMine)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, emails(items))

	items, err = public.SetScope(ctx, feed.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSubmitWithAttachmentAgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	a := srv.Login(t, "a@x.com")
	ctx := context.Background()

	previews := feed.NewPreviews()
	f := feed.New(a.API(t, model.CollectionSkills), a.Viewer, feed.WithScope(feed.ScopeMine))
	form := feed.NewForm(previews, feed.Limits{MaxBytes: 1 << 20, AllowedTypes: []string{"image/png"}})
	form.SetTitle("Drawing")
	form.SetDescription("pencil sketch")
	require.NoError(t, form.SetFile("cover.png", bytes.NewReader(png)))

	created, err := f.Submit(ctx, form)
	require.NoError(t, err)
	require.NotEmpty(t, created.MediaURL)
	assert.Equal(t, 0, previews.Active())
	assert.Empty(t, form.Title())

	items := f.Items()
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)

	// 上传的文件可以从后端回读
	resp, err := http.Get(srv.URL + created.MediaURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, body)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "image/png"))

	// 编辑后条目被整体替换，媒体保持不变
	edit := feed.NewForm(previews, feed.Limits{MaxBytes: 1 << 20})
	edit.SetTitle("Drawing v2")
	edit.SetDescription("ink")
	updated, err := f.Update(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Drawing v2", updated.Title)
	assert.Equal(t, created.MediaURL, updated.MediaURL)

	ok, err := f.Delete(ctx, created.ID, func(model.ContentItem) bool { return true })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.Items())
}

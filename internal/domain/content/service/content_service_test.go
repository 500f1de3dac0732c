package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/domain/content/repository"
	"learnhub_client/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.UserSummary{ID: "u1", Email: "a@x.com", Username: "alice"}
	bob   = model.UserSummary{ID: "u2", Email: "b@x.com", Username: "bob"}
)

func newTestService() ContentService {
	return NewContentService(repository.NewContentRepository())
}

func TestCreateValidatesInput(t *testing.T) {
	s := newTestService()

	_, err := s.Create(model.CollectionGoals, alice, Input{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	start := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	_, err = s.Create(model.CollectionGoals, alice, Input{Title: "x", StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, ErrDateRange)

	item, err := s.Create(model.CollectionGoals, alice, Input{Title: " Learn Go "})
	require.NoError(t, err)
	assert.Equal(t, "Learn Go", item.Title)
	assert.Equal(t, alice, item.Author)
	assert.NotNil(t, item.LikedUsers)
}

func TestTextIsSanitized(t *testing.T) {
	s := newTestService()

	item, err := s.Create(model.CollectionSkills, alice, Input{
		Title:       `Go<script>alert(1)</script>`,
		Description: "first line\r\nsecond line",
	})
	require.NoError(t, err)
	assert.Equal(t, "Go", item.Title)
	assert.Equal(t, "first line\nsecond line", item.Description)

	_, err = s.AddComment(model.CollectionSkills, item.ID, bob, "<script>x</script>")
	assert.ErrorIs(t, err, ErrEmptyComment)

	long := make([]rune, 2001)
	for i := range long {
		long[i] = 'a'
	}
	_, err = s.AddComment(model.CollectionSkills, item.ID, bob, string(long))
	var tooLong *security.ErrTooLong
	assert.ErrorAs(t, err, &tooLong)
}

func TestToggleLike(t *testing.T) {
	s := newTestService()
	item, err := s.Create(model.CollectionSkills, alice, Input{Title: "Go"})
	require.NoError(t, err)

	st, err := s.ToggleLike(model.CollectionSkills, item.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Liked: true, LikeCount: 1}, st)

	// 同一用户以不同大小写的邮箱视为同一人
	st, err = s.ToggleLike(model.CollectionSkills, item.ID, model.UserSummary{Email: "B@X.com"})
	require.NoError(t, err)
	assert.Equal(t, model.LikeState{Liked: false, LikeCount: 0}, st)

	_, err = s.ToggleLike(model.CollectionGoals, item.ID, bob)
	assert.ErrorIs(t, err, repository.ErrContentNotFound)
}

func TestConcurrentLikesAreCounted(t *testing.T) {
	s := newTestService()
	item, err := s.Create(model.CollectionGoals, alice, Input{Title: "Marathon"})
	require.NoError(t, err)

	const users = 50
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := model.UserSummary{ID: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@x.com", i)}
			_, err := s.ToggleLike(model.CollectionGoals, item.ID, u)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(model.CollectionGoals, item.ID)
	require.NoError(t, err)
	assert.Equal(t, users, got.LikeCount)
	assert.Len(t, got.LikedUsers, users)
}

func TestCommentLifecycle(t *testing.T) {
	s := newTestService()
	item, err := s.Create(model.CollectionLearningPlans, alice, Input{Title: "Plan"})
	require.NoError(t, err)

	_, err = s.AddComment(model.CollectionLearningPlans, item.ID, bob, " \t ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	c, err := s.AddComment(model.CollectionLearningPlans, item.ID, bob, "hello")
	require.NoError(t, err)
	assert.Equal(t, bob, c.Author)
	assert.Equal(t, item.ID, c.ContentID)

	_, err = s.UpdateComment(model.CollectionLearningPlans, c.ID, alice, "nope")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, s.DeleteComment(model.CollectionLearningPlans, c.ID, alice), ErrNotOwner)

	updated, err := s.UpdateComment(model.CollectionLearningPlans, c.ID, bob, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Text)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	got, err := s.Get(model.CollectionLearningPlans, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	require.NoError(t, s.DeleteComment(model.CollectionLearningPlans, c.ID, bob))
	list, err := s.Comments(model.CollectionLearningPlans, item.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.UpdateComment(model.CollectionLearningPlans, c.ID, bob, "gone")
	assert.ErrorIs(t, err, repository.ErrCommentNotFound)
}

func TestUpdateAndDeleteContentOwnership(t *testing.T) {
	s := newTestService()
	item, err := s.Create(model.CollectionLearningProgress, alice, Input{Title: "Week 1", MediaURL: "/media/a.png"})
	require.NoError(t, err)

	_, err = s.Update(model.CollectionLearningProgress, item.ID, bob, Input{Title: "hijack"})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := s.Update(model.CollectionLearningProgress, item.ID, alice, Input{Title: "Week 1 done"})
	require.NoError(t, err)
	assert.Equal(t, "Week 1 done", updated.Title)
	assert.Equal(t, "/media/a.png", updated.MediaURL)

	assert.ErrorIs(t, s.Delete(model.CollectionLearningProgress, item.ID, bob), ErrNotOwner)
	require.NoError(t, s.Delete(model.CollectionLearningProgress, item.ID, alice))
	_, err = s.Get(model.CollectionLearningProgress, item.ID)
	assert.ErrorIs(t, err, repository.ErrContentNotFound)
}

// MockContentRepository is a mock of ContentRepository
type MockContentRepository struct {
	mock.Mock
	repository.ContentRepository
}

func (m *MockContentRepository) Create(item *model.ContentItem) error {
	return m.Called(item).Error(0)
}

func TestCreateRepositoryFailure(t *testing.T) {
	repo := new(MockContentRepository)
	repo.On("Create", mock.AnythingOfType("*model.ContentItem")).Return(errors.New("disk full"))

	s := NewContentService(repo)
	item, err := s.Create(model.CollectionGoals, alice, Input{Title: "x"})

	assert.Error(t, err)
	assert.Nil(t, item)
	repo.AssertExpectations(t)
}

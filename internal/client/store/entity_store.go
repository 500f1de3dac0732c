package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"learnhub_client/internal/domain/content/model"
	"learnhub_client/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 乐观占位条目的 id 前缀
const placeholderPrefix = "pending-"

// Lister 拉取完整列表，后端不提供过滤
type Lister interface {
	List(ctx context.Context) ([]model.ContentItem, error)
}

// Filter 客户端过滤条件
type Filter func(item *model.ContentItem) bool

// All 不过滤
func All() Filter {
	return func(*model.ContentItem) bool { return true }
}

// ExcludeAuthor 公共动态流，排除自己发布的
func ExcludeAuthor(email string) Filter {
	return func(item *model.ContentItem) bool {
		return !strings.EqualFold(item.Author.Email, email)
	}
}

// OnlyAuthor "我的"标签页，只保留自己发布的
func OnlyAuthor(email string) Filter {
	return func(item *model.ContentItem) bool {
		return strings.EqualFold(item.Author.Email, email)
	}
}

type entry struct {
	item model.ContentItem
	seq  uint64
}

// EntityStore 一个动态流的内存集合，按 id 索引
// 只在服务端确认后修改，新建条目的乐观占位除外
type EntityStore struct {
	mu      sync.RWMutex
	lister  Lister
	entries map[string]*entry
	seq     uint64
	log     *zap.Logger
}

func NewEntityStore(lister Lister, log *zap.Logger) *EntityStore {
	return &EntityStore{
		lister:  lister,
		entries: make(map[string]*entry),
		log:     logger.OrNop(log),
	}
}

// Load 拉取全部条目并在本地过滤，整体替换已确认的条目，未确认的占位保留
func (s *EntityStore) Load(ctx context.Context, filter Filter) ([]model.ContentItem, error) {
	items, err := s.lister.List(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = All()
	}

	s.mu.Lock()
	for id := range s.entries {
		if !IsPlaceholder(id) {
			delete(s.entries, id)
		}
	}
	kept := 0
	for i := range items {
		if !filter(&items[i]) {
			continue
		}
		s.putLocked(items[i])
		kept++
	}
	s.mu.Unlock()

	s.log.Debug("feed loaded", zap.Int("fetched", len(items)), zap.Int("kept", kept))
	return s.Items(), nil
}

// Insert 插入服务端已确认的新条目，id 已存在时替换
func (s *EntityStore) Insert(item model.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(item)
}

// InsertOptimistic 插入占位条目，返回占位 id
func (s *EntityStore) InsertOptimistic(item model.ContentItem) string {
	item.ID = placeholderPrefix + uuid.New().String()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(item)
	return item.ID
}

// Confirm 用服务端返回的条目替换占位，排序位置不变
func (s *EntityStore) Confirm(placeholderID string, item model.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := uint64(0)
	if e, ok := s.entries[placeholderID]; ok {
		seq = e.seq
		delete(s.entries, placeholderID)
	}
	if seq == 0 {
		s.putLocked(item)
		return
	}
	s.entries[item.ID] = &entry{item: cloneItem(item), seq: seq}
}

// Discard 创建失败，移除占位
func (s *EntityStore) Discard(placeholderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, placeholderID)
}

// Remove 服务端删除成功后移除
func (s *EntityStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Replace 服务端更新成功后替换
func (s *EntityStore) Replace(id string, item model.ContentItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	if item.ID == "" {
		item.ID = id
	}
	if item.ID != id {
		delete(s.entries, id)
	}
	s.entries[item.ID] = &entry{item: cloneItem(item), seq: e.seq}
	return true
}

func (s *EntityStore) Get(id string) (model.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return model.ContentItem{}, false
	}
	return cloneItem(e.item), true
}

func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Items 最新的在前，不依赖后端返回顺序
func (s *EntityStore) Items() []model.ContentItem {
	s.mu.RLock()
	list := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.After(b.item.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]model.ContentItem, len(list))
	for i, e := range list {
		out[i] = cloneItem(e.item)
	}
	return out
}

// IsPlaceholder 是否为尚未确认的占位 id
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

func (s *EntityStore) putLocked(item model.ContentItem) {
	s.seq++
	s.entries[item.ID] = &entry{item: cloneItem(item), seq: s.seq}
}

func cloneItem(item model.ContentItem) model.ContentItem {
	if item.LikedUsers != nil {
		item.LikedUsers = append([]model.UserSummary(nil), item.LikedUsers...)
	}
	if item.Comments != nil {
		item.Comments = append([]model.Comment(nil), item.Comments...)
	}
	return item
}

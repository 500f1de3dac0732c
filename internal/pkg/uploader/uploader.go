package uploader

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrTooLarge 文件超过大小限制
var ErrTooLarge = errors.New("file too large")

// ErrTypeNotAllowed 文件类型不在白名单内
var ErrTypeNotAllowed = errors.New("file type not allowed")

type Uploader interface {
	UploadFile(file *multipart.FileHeader) (string, error)
}

// Object 已上传的媒体对象
type Object struct {
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

// Store 可上传也可回读的媒体存储
type Store interface {
	Uploader
	Open(key string) (Object, bool)
}

// MemoryUploader 内存媒体存储，供开发服务器和测试使用
type MemoryUploader struct {
	mu           sync.RWMutex
	objects      map[string]Object
	publicPrefix string
	maxBytes     int64
	allowed      []string
}

// NewMemoryUploader publicPrefix 为返回 URL 的前缀，例如 http://localhost:8080/media
func NewMemoryUploader(publicPrefix string, maxBytes int64, allowedTypes []string) *MemoryUploader {
	return &MemoryUploader{
		objects:      make(map[string]Object),
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		maxBytes:     maxBytes,
		allowed:      allowedTypes,
	}
}

func (u *MemoryUploader) UploadFile(file *multipart.FileHeader) (string, error) {
	if u.maxBytes > 0 && file.Size > u.maxBytes {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	limit := u.maxBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if len(u.allowed) > 0 && !mimetype.EqualsAny(mt.String(), u.allowed...) {
		return "", fmt.Errorf("%w: %s", ErrTypeNotAllowed, mt.String())
	}

	// Generate unique filename: YYYYMMDD/uuid.ext
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = mt.Extension()
	}
	now := time.Now()
	key := fmt.Sprintf("%s/%s%s", now.Format("20060102"), uuid.New().String(), ext)

	u.mu.Lock()
	u.objects[key] = Object{ContentType: mt.String(), Data: data, UploadedAt: now}
	u.mu.Unlock()

	return u.publicPrefix + "/" + key, nil
}

// Open 按 key 读取对象
func (u *MemoryUploader) Open(key string) (Object, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	obj, ok := u.objects[strings.TrimPrefix(key, "/")]
	return obj, ok
}

package feed

import (
	"sync"

	"github.com/google/uuid"
)

// Preview 本地文件预览句柄，相当于浏览器里的 object URL，用完必须释放
type Preview struct {
	id          string
	FileName    string
	ContentType string
	data        []byte
}

// URL 预览地址，仅在本进程内有效
func (p *Preview) URL() string {
	return "preview://" + p.id
}

func (p *Preview) Size() int64 {
	return int64(len(p.data))
}

func (p *Preview) Bytes() []byte {
	return p.data
}

// Previews 记录所有未释放的预览，用于发现泄漏
type Previews struct {
	mu     sync.Mutex
	active map[string]*Preview
}

func NewPreviews() *Previews {
	return &Previews{active: make(map[string]*Preview)}
}

// Acquire 创建预览
func (r *Previews) Acquire(fileName, contentType string, data []byte) *Preview {
	p := &Preview{
		id:          uuid.New().String(),
		FileName:    fileName,
		ContentType: contentType,
		data:        data,
	}
	r.mu.Lock()
	r.active[p.id] = p
	r.mu.Unlock()
	return p
}

// Release 释放预览，重复释放无副作用
func (r *Previews) Release(p *Preview) {
	if p == nil {
		return
	}
	r.mu.Lock()
	delete(r.active, p.id)
	r.mu.Unlock()
	p.data = nil
}

// Active 未释放的预览数
func (r *Previews) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

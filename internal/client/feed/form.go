package feed

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"learnhub_client/internal/client/content"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/config"

	"github.com/gabriel-vasile/mimetype"
)

// Limits 附件限制
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// LimitsFromConfig 从上传配置生成限制
func LimitsFromConfig(cfg config.UploadConfig) Limits {
	return Limits{MaxBytes: cfg.MaxBytes, AllowedTypes: cfg.AllowedTypes}
}

// Form 创建/编辑内容的表单，字段只能通过方法读写
type Form struct {
	mu sync.Mutex

	title       string
	description string
	startDate   *time.Time
	endDate     *time.Time

	preview  *Preview
	previews *Previews
	limits   Limits
}

func NewForm(previews *Previews, limits Limits) *Form {
	if previews == nil {
		previews = NewPreviews()
	}
	return &Form{previews: previews, limits: limits}
}

func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

func (f *Form) SetDescription(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.description = description
}

// SetDates 起止日期，nil 表示不填
func (f *Form) SetDates(start, end *time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startDate, f.endDate = start, end
}

func (f *Form) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *Form) Description() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.description
}

// SetFile 选择附件。校验失败时保留之前的附件；成功时释放被替换的预览
func (f *Form) SetFile(name string, r io.Reader) error {
	limit := f.limits.MaxBytes
	var data []byte
	var err error
	if limit > 0 {
		data, err = io.ReadAll(io.LimitReader(r, limit+1))
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return apiclient.Validation("file %s exceeds %d bytes", name, limit)
	}
	if len(data) == 0 {
		return apiclient.Validation("file %s is empty", name)
	}

	mt := mimetype.Detect(data)
	if len(f.limits.AllowedTypes) > 0 && !mimetype.EqualsAny(mt.String(), f.limits.AllowedTypes...) {
		return apiclient.Validation("file type %s is not allowed", mt.String())
	}

	next := f.previews.Acquire(name, mt.String(), data)

	f.mu.Lock()
	prev := f.preview
	f.preview = next
	f.mu.Unlock()

	f.previews.Release(prev)
	return nil
}

// ClearFile 移除附件并释放预览
func (f *Form) ClearFile() {
	f.mu.Lock()
	prev := f.preview
	f.preview = nil
	f.mu.Unlock()
	f.previews.Release(prev)
}

// Preview 当前附件预览，没有时为 nil
func (f *Form) Preview() *Preview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview
}

// Validate 必填项和日期范围
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(f.title) == "" {
		return apiclient.Validation("title is required")
	}
	if strings.TrimSpace(f.description) == "" {
		return apiclient.Validation("description is required")
	}
	if f.startDate != nil && f.endDate != nil && f.endDate.Before(*f.startDate) {
		return apiclient.Validation("end date must not be before start date")
	}
	return nil
}

// Reset 清空所有字段并释放预览，提交成功后调用
func (f *Form) Reset() {
	f.mu.Lock()
	prev := f.preview
	f.title = ""
	f.description = ""
	f.startDate = nil
	f.endDate = nil
	f.preview = nil
	f.mu.Unlock()
	f.previews.Release(prev)
}

// Dismiss 表单关闭或失去焦点，释放预览，文字内容保留
func (f *Form) Dismiss() {
	f.ClearFile()
}

func (f *Form) draft() *content.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &content.Draft{
		Title:       strings.TrimSpace(f.title),
		Description: strings.TrimSpace(f.description),
		StartDate:   f.startDate,
		EndDate:     f.endDate,
	}
	if f.preview != nil {
		d.File = &content.Attachment{
			FileName:    f.preview.FileName,
			ContentType: f.preview.ContentType,
			Reader:      bytes.NewReader(f.preview.Bytes()),
		}
	}
	return d
}

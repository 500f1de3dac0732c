package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	htmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	eventHandler = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsScheme     = regexp.MustCompile(`(?i)javascript\s*:`)
	inlineSpace  = regexp.MustCompile(`[ \t]+`)
)

// ErrTooLong 文本超出长度上限
type ErrTooLong struct {
	Field string
	Max   int
}

func (e *ErrTooLong) Error() string {
	return fmt.Sprintf("%s too long, maximum length is %d", e.Field, e.Max)
}

// TextSanitizer 用户输入文本清理器
type TextSanitizer struct {
	Field     string
	MaxLength int  // 0 不限制
	Multiline bool // 保留换行
}

// NewTextSanitizer 创建文本清理器
func NewTextSanitizer(field string, maxLength int, multiline bool) *TextSanitizer {
	return &TextSanitizer{Field: field, MaxLength: maxLength, Multiline: multiline}
}

// Sanitize 移除脚本/事件属性/控制字符并检查长度
func (ts *TextSanitizer) Sanitize(value string) (string, error) {
	value = scriptTag.ReplaceAllString(value, "")
	value = styleTag.ReplaceAllString(value, "")
	value = htmlComment.ReplaceAllString(value, "")
	value = eventHandler.ReplaceAllString(value, "")
	value = jsScheme.ReplaceAllString(value, "")

	value = strings.Map(func(r rune) rune {
		if r == '\n' && ts.Multiline {
			return r
		}
		if r == '\r' {
			return -1
		}
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	value = inlineSpace.ReplaceAllString(value, " ")
	value = strings.TrimSpace(value)

	if ts.MaxLength > 0 && utf8.RuneCountInString(value) > ts.MaxLength {
		return "", &ErrTooLong{Field: ts.Field, Max: ts.MaxLength}
	}
	return value, nil
}

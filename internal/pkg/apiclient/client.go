package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnhub_client/pkg/logger"
	"learnhub_client/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 错误响应最多读取的字节数
const maxErrorBody = 64 << 10

// CredentialProvider 提供 Bearer Token
type CredentialProvider interface {
	Token() (string, bool)
}

// Client 后端 REST 接口适配器，不缓存不重试
type Client struct {
	baseURL string
	creds   CredentialProvider
	http    *http.Client
	limiter *rate.Limiter
	metrics *metrics.MetricsCollector
	log     *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout 复制一份 http.Client 再设置超时，不影响调用方传入的共享实例
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		var hc http.Client
		if c.http != nil {
			hc = *c.http
		}
		hc.Timeout = d
		c.http = &hc
	}
}

// WithRateLimit 客户端限流，qps <= 0 时不限流
func WithRateLimit(qps float64, burst int) Option {
	return func(c *Client) {
		if qps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New 创建客户端
func New(baseURL string, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log)
	return c
}

type requestOptions struct {
	anonymous bool
	headers   map[string]string
}

// RequestOption 单次请求选项
type RequestOption func(*requestOptions)

// WithAnonymous 允许无凭证访问，有 Token 时仍会携带
func WithAnonymous() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// Do 发送请求。body 为 *Multipart 时按表单编码，否则按 JSON 编码。
// 所有失败都以 *Error 返回。
func (c *Client) Do(ctx context.Context, method, path string, body any, out any, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	token, ok := "", false
	if c.creds != nil {
		token, ok = c.creds.Token()
	}
	if (!ok || token == "") && !ro.anonymous {
		return Unauthenticated()
	}

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "encode request body: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	traceID := uuid.New().String()
	req.Header.Set("X-Trace-ID", traceID)
	for k, v := range ro.headers {
		req.Header.Set(k, v)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(method, path, traceID, 0, start)
		return &Error{Kind: KindNetwork, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()
	c.record(method, path, traceID, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

func (c *Client) record(method, path, traceID string, status int, start time.Time) {
	cost := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordAPICall(method, status, cost)
	}
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("trace_id", traceID),
		zap.Duration("cost", cost),
	)
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, "", err
		}
		return buf, ct, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// decodeError 按 message -> error -> 原始响应体 -> 通用文案 的顺序提取错误信息
func decodeError(resp *http.Response) *Error {
	e := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		e.Message = transportMessage(err)
		e.Err = err
		return e
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		e.Code = payload.Code
		switch {
		case strings.TrimSpace(payload.Message) != "":
			e.Message = payload.Message
			return e
		case strings.TrimSpace(payload.Error) != "":
			e.Message = payload.Error
			return e
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" && text != "{}" {
		e.Message = text
		return e
	}
	e.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	return e
}

func transportMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "network request failed"
}

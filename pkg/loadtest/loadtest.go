package loadtest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// RequestFunc 单次请求
type RequestFunc func(ctx context.Context) error

// PerformanceTest 固定并发、固定时长的压测
type PerformanceTest struct {
	name        string
	concurrency int
	duration    time.Duration
	requests    []RequestFunc

	mu            sync.Mutex
	total         int64
	failed        int64
	totalDuration time.Duration
	responseTimes []time.Duration
}

// NewPerformanceTest 创建性能测试
func NewPerformanceTest(name string, concurrency int, duration time.Duration) *PerformanceTest {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PerformanceTest{
		name:        name,
		concurrency: concurrency,
		duration:    duration,
	}
}

// AddRequest 添加请求函数，运行时轮流执行
func (pt *PerformanceTest) AddRequest(request RequestFunc) {
	pt.requests = append(pt.requests, request)
}

// Run 运行性能测试，ctx 取消时提前结束
func (pt *PerformanceTest) Run(ctx context.Context) *TestResult {
	if len(pt.requests) == 0 {
		return &TestResult{TestName: pt.name, Concurrency: pt.concurrency}
	}

	ctx, cancel := context.WithTimeout(ctx, pt.duration)
	defer cancel()

	started := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < pt.concurrency; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for n := offset; ctx.Err() == nil; n++ {
				pt.execute(ctx, pt.requests[n%len(pt.requests)])
			}
		}(i)
	}
	wg.Wait()

	return pt.result(time.Since(started))
}

func (pt *PerformanceTest) execute(ctx context.Context, request RequestFunc) {
	start := time.Now()
	err := request(ctx)
	elapsed := time.Since(start)

	// 超时打断的请求不计入结果
	if err != nil && ctx.Err() != nil {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.total++
	pt.totalDuration += elapsed
	pt.responseTimes = append(pt.responseTimes, elapsed)
	if err != nil {
		pt.failed++
	}
}

func (pt *PerformanceTest) result(wall time.Duration) *TestResult {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	r := &TestResult{
		TestName:        pt.name,
		Concurrency:     pt.concurrency,
		Duration:        wall,
		TotalRequests:   pt.total,
		SuccessRequests: pt.total - pt.failed,
		FailedRequests:  pt.failed,
	}
	if wall > 0 {
		r.QPS = float64(pt.total) / wall.Seconds()
	}
	if pt.total == 0 {
		return r
	}
	r.SuccessRate = float64(r.SuccessRequests) / float64(pt.total)
	r.ErrorRate = float64(pt.failed) / float64(pt.total)

	sorted := append([]time.Duration(nil), pt.responseTimes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	r.AverageResponseTime = pt.totalDuration / time.Duration(len(sorted))
	r.MinResponseTime = sorted[0]
	r.MaxResponseTime = sorted[len(sorted)-1]
	r.P50 = percentile(sorted, 0.5)
	r.P95 = percentile(sorted, 0.95)
	r.P99 = percentile(sorted, 0.99)
	return r
}

// percentile 计算百分位数，times 需已排序
func percentile(times []time.Duration, p float64) time.Duration {
	if len(times) == 0 {
		return 0
	}
	index := int(float64(len(times)) * p)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// TestResult 测试结果
type TestResult struct {
	TestName            string        `json:"test_name"`
	Concurrency         int           `json:"concurrency"`
	Duration            time.Duration `json:"duration"`
	TotalRequests       int64         `json:"total_requests"`
	SuccessRequests     int64         `json:"success_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	QPS                 float64       `json:"qps"`
	SuccessRate         float64       `json:"success_rate"`
	ErrorRate           float64       `json:"error_rate"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`
	P50                 time.Duration `json:"p50"`
	P95                 time.Duration `json:"p95"`
	P99                 time.Duration `json:"p99"`
}

// Print 打印测试结果
func (tr *TestResult) Print(w io.Writer) {
	fmt.Fprintf(w, "性能测试结果: %s\n", tr.TestName)
	fmt.Fprintf(w, "================================\n")
	fmt.Fprintf(w, "并发数: %d\n", tr.Concurrency)
	fmt.Fprintf(w, "测试时长: %v\n", tr.Duration)
	fmt.Fprintf(w, "总请求数: %d\n", tr.TotalRequests)
	fmt.Fprintf(w, "成功请求: %d\n", tr.SuccessRequests)
	fmt.Fprintf(w, "失败请求: %d\n", tr.FailedRequests)
	fmt.Fprintf(w, "QPS: %.2f\n", tr.QPS)
	fmt.Fprintf(w, "成功率: %.2f%%\n", tr.SuccessRate*100)
	fmt.Fprintf(w, "平均响应时间: %v\n", tr.AverageResponseTime)
	fmt.Fprintf(w, "P50: %v  P95: %v  P99: %v\n", tr.P50, tr.P95, tr.P99)
	fmt.Fprintf(w, "================================\n")
}

// StressTest 逐步加压，出现瓶颈时停止
type StressTest struct {
	maxConcurrency int
	stepSize       int
	stepDuration   time.Duration
	requests       []RequestFunc

	// 超过任一阈值即视为瓶颈
	MaxErrorRate float64
	MaxP95       time.Duration
}

// NewStressTest 创建压力测试
func NewStressTest(maxConcurrency, stepSize int, stepDuration time.Duration) *StressTest {
	if stepSize < 1 {
		stepSize = 1
	}
	return &StressTest{
		maxConcurrency: maxConcurrency,
		stepSize:       stepSize,
		stepDuration:   stepDuration,
		MaxErrorRate:   0.05,
		MaxP95:         500 * time.Millisecond,
	}
}

// AddRequest 添加请求
func (st *StressTest) AddRequest(request RequestFunc) {
	st.requests = append(st.requests, request)
}

// Run 运行压力测试，返回每一级的结果
func (st *StressTest) Run(ctx context.Context) []*TestResult {
	results := make([]*TestResult, 0)

	for concurrency := st.stepSize; concurrency <= st.maxConcurrency; concurrency += st.stepSize {
		if ctx.Err() != nil {
			break
		}
		pt := NewPerformanceTest(fmt.Sprintf("stress_%d", concurrency), concurrency, st.stepDuration)
		for _, req := range st.requests {
			pt.AddRequest(req)
		}

		result := pt.Run(ctx)
		results = append(results, result)

		if result.ErrorRate > st.MaxErrorRate || result.P95 > st.MaxP95 {
			break
		}
	}

	return results
}

// CompareResults 比较测试结果
func CompareResults(w io.Writer, results ...*TestResult) {
	fmt.Fprintf(w, "测试结果对比\n")
	fmt.Fprintf(w, "================================\n")
	for _, result := range results {
		fmt.Fprintf(w, "%-20s | QPS: %-8.2f | P95: %-8v | 错误率: %-6.2f%%\n",
			result.TestName, result.QPS, result.P95, result.ErrorRate*100)
	}
	fmt.Fprintf(w, "================================\n")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"learnhub_client/internal/client/auth"
	"learnhub_client/internal/client/content"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/session"
	"learnhub_client/pkg/loadtest"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL for testing")
		testType    = flag.String("type", "all", "Test type: load, stress, all")
		concurrency = flag.Int("concurrency", 50, "Concurrent workers")
		duration    = flag.Duration("duration", 30*time.Second, "Test duration")
	)
	flag.Parse()

	ctx := context.Background()
	fmt.Println("LearnHub 性能测试工具")
	fmt.Println("================================")

	if err := checkServerHealth(ctx, *baseURL); err != nil {
		log.Fatalf("服务器不可用: %s: %v", *baseURL, err)
	}

	s, err := newScenario(ctx, *baseURL)
	if err != nil {
		log.Fatalf("准备测试数据失败: %v", err)
	}

	var results []*loadtest.TestResult
	switch *testType {
	case "load":
		results = runLoadTests(ctx, s, *concurrency, *duration)
	case "stress":
		results = runStressTests(ctx, s, *concurrency, *duration)
	case "all":
		results = append(runLoadTests(ctx, s, *concurrency, *duration), runStressTests(ctx, s, *concurrency, *duration)...)
	default:
		fmt.Printf("未知的测试类型: %s\n", *testType)
		flag.Usage()
		os.Exit(1)
	}

	loadtest.CompareResults(os.Stdout, results...)
}

func checkServerHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// scenario 一个登录用户和一条预置内容
type scenario struct {
	api    *content.API
	itemID string
}

func newScenario(ctx context.Context, baseURL string) (*scenario, error) {
	sessions := session.NewManager(session.NewMemoryStore(), nil)
	client := apiclient.New(baseURL, sessions, apiclient.WithTimeout(10*time.Second))
	if _, err := auth.NewService(client, sessions).Login(ctx, "perf@learnhub.local", "perf"); err != nil {
		return nil, err
	}
	api, err := content.NewAPI(client, model.CollectionGoals)
	if err != nil {
		return nil, err
	}
	item, err := api.Create(ctx, &content.Draft{Title: "perf target", Description: "seeded by perf_test"})
	if err != nil {
		return nil, err
	}
	return &scenario{api: api, itemID: item.ID}, nil
}

func (s *scenario) requests() []loadtest.RequestFunc {
	return []loadtest.RequestFunc{
		func(ctx context.Context) error {
			_, err := s.api.List(ctx)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.api.ToggleLike(ctx, s.itemID)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.api.Comments(ctx, s.itemID)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.api.LikedUsers(ctx, s.itemID)
			return err
		},
	}
}

func runLoadTests(ctx context.Context, s *scenario, concurrency int, duration time.Duration) []*loadtest.TestResult {
	fmt.Println("运行负载测试")
	pt := loadtest.NewPerformanceTest("feed_mixed", concurrency, duration)
	for _, req := range s.requests() {
		pt.AddRequest(req)
	}
	result := pt.Run(ctx)
	result.Print(os.Stdout)
	return []*loadtest.TestResult{result}
}

func runStressTests(ctx context.Context, s *scenario, maxConcurrency int, duration time.Duration) []*loadtest.TestResult {
	fmt.Println("运行压力测试")
	steps := 5
	st := loadtest.NewStressTest(maxConcurrency, maxConcurrency/steps, duration/time.Duration(steps))
	for _, req := range s.requests() {
		st.AddRequest(req)
	}
	results := st.Run(ctx)
	for _, r := range results {
		r.Print(os.Stdout)
	}
	return results
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"learnhub_client/internal/client/auth"
	"learnhub_client/internal/client/content"
	"learnhub_client/internal/client/interaction"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/session"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type user struct {
	viewer model.Viewer
	api    *content.API
}

func login(ctx context.Context, baseURL, email string) (*user, error) {
	sessions := session.NewManager(session.NewMemoryStore(), nil)
	client := apiclient.New(baseURL, sessions, apiclient.WithHTTPClient(httpClient))
	viewer, err := auth.NewService(client, sessions).Login(ctx, email, "")
	if err != nil {
		return nil, err
	}
	api, err := content.NewAPI(client, model.CollectionGoals)
	if err != nil {
		return nil, err
	}
	return &user{viewer: viewer, api: api}, nil
}

// 每个用户对同一条内容点赞一次，最终计数必须等于用户数
func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "backend base URL")
		totalUsers = flag.Int("users", 1000, "concurrent users")
	)
	flag.Parse()
	ctx := context.Background()

	// 1. 发布一条内容
	owner, err := login(ctx, *baseURL, "stress-owner@learnhub.local")
	if err != nil {
		log.Fatalf("登录失败: %v", err)
	}
	item, err := owner.api.Create(ctx, &content.Draft{Title: "stress target", Description: "like storm"})
	if err != nil {
		log.Fatalf("创建内容失败: %v", err)
	}

	// 2. 准备用户
	users := make([]*user, *totalUsers)
	for i := range users {
		if users[i], err = login(ctx, *baseURL, fmt.Sprintf("stress-%d@learnhub.local", i)); err != nil {
			log.Fatalf("登录失败: %v", err)
		}
	}

	fmt.Printf("开始压测：%d 个用户同时点赞 (ContentID: %s)...\n", *totalUsers, item.ID)

	// 3. 并发点赞，每个用户一张卡片
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount, failCount := 0, 0
	start := time.Now()

	for _, u := range users {
		wg.Add(1)
		go func(u *user) {
			defer wg.Done()
			card := interaction.NewController(*item, u.viewer, u.api)
			_, err := card.ToggleLike(ctx)
			mu.Lock()
			if err == nil {
				successCount++
			} else {
				failCount++
			}
			mu.Unlock()
		}(u)
	}

	wg.Wait()
	duration := time.Since(start)

	// 4. 校验最终计数
	likers, err := owner.api.LikedUsers(ctx, item.ID)
	if err != nil {
		log.Fatalf("读取点赞列表失败: %v", err)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(*totalUsers)/duration.Seconds())
	fmt.Printf("点赞成功: %d\n", successCount)
	fmt.Printf("点赞失败: %d\n", failCount)
	fmt.Printf("最终点赞数: %d (预期: %d)\n", len(likers), successCount)
	fmt.Println("--------------------------------------------------")
	if len(likers) != successCount {
		log.Fatalf("点赞计数不一致")
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"learnhub_client/internal/client/auth"
	"learnhub_client/internal/client/content"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/internal/pkg/config"
	"learnhub_client/internal/pkg/session"
	"learnhub_client/pkg/database"
	"learnhub_client/pkg/logger"
	"learnhub_client/pkg/metrics"

	"go.uber.org/zap"
)

// app 一次命令执行所需的客户端栈
type app struct {
	cfg      *config.Config
	sessions *session.Manager
	client   *apiclient.Client
	auth     *auth.Service
	log      *zap.Logger
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", "login -email a@x.com [-username alice]", cmdLogin},
	{"logout", "logout", cmdLogout},
	{"whoami", "whoami", cmdWhoami},
	{"list", "list -c goals [-scope public|mine|all]", cmdList},
	{"post", "post -c goals -title T -desc D [-start 2006-01-02] [-end 2006-01-02] [-file path]", cmdPost},
	{"delete", "delete -c goals -id ID [-yes]", cmdDelete},
	{"like", "like -c goals -id ID", cmdLike},
	{"likes", "likes -c goals -id ID", cmdLikes},
	{"comments", "comments -c goals -id ID", cmdComments},
	{"comment", "comment -c goals -id ID -text T", cmdComment},
	{"edit-comment", "edit-comment -c goals -id ID -comment CID -text T", cmdEditComment},
	{"delete-comment", "delete-comment -c goals -id ID -comment CID [-yes]", cmdDeleteComment},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: learnctl <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %s\n", c.usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	config.LoadConfig()
	cfg := &config.GlobalConfig

	if err := logger.InitLogger(cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "learnctl: %v\n", err)
		os.Exit(1)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, a, os.Args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "learnctl %s: %s\n", name, apiclient.UserMessage(err))
			a.log.Debug("command failed", zap.String("command", name), zap.Error(err))
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.L()

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		rdb, err := database.InitRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = session.NewRedisStore(rdb, cfg.Session.KeyPrefix+"learnctl", cfg.Session.TTL)
	default:
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store, log)
	if _, err := sessions.Restore(ctx); err != nil && !errors.Is(err, session.ErrNoSession) {
		log.Warn("restore session failed", zap.Error(err))
	}
	// 内存会话不跨进程，允许通过环境变量传入 Token
	if token := os.Getenv("LEARNHUB_TOKEN"); token != "" {
		if _, ok := sessions.Token(); !ok {
			if _, err := sessions.Login(ctx, token); err != nil {
				return nil, fmt.Errorf("LEARNHUB_TOKEN: %w", err)
			}
		}
	}

	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(log),
		apiclient.WithMetrics(metrics.GetGlobalCollector()),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, apiclient.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	client := apiclient.New(cfg.API.BaseURL, sessions, opts...)

	return &app{
		cfg:      cfg,
		sessions: sessions,
		client:   client,
		auth:     auth.NewService(client, sessions),
		log:      log,
	}, nil
}

func (a *app) api(collection string) (*content.API, error) {
	return content.NewAPI(a.client, model.Collection(collection))
}

func (a *app) viewer() model.Viewer {
	return a.auth.Current()
}

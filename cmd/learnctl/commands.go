package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"learnhub_client/internal/client/content"
	"learnhub_client/internal/client/feed"
	"learnhub_client/internal/client/interaction"
	"learnhub_client/internal/domain/content/model"
	"learnhub_client/internal/pkg/apiclient"
)

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// confirm 交互式确认，-yes 跳过
func confirm(prompt string, yes bool) bool {
	if yes {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "display name for new accounts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	v, err := a.auth.Login(ctx, *email, *username)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s <%s>\n", v.Username, v.Email)
	if a.cfg.Session.Store == "memory" {
		token, _ := a.sessions.Token()
		fmt.Printf("export LEARNHUB_TOKEN=%s\n", token)
	}
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	return a.auth.Logout(ctx)
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	v := a.viewer()
	if v.Anonymous() {
		return apiclient.Unauthenticated()
	}
	fmt.Printf("%s <%s> id=%s\n", v.Username, v.Email, v.ID)
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := newFlags("list")
	c := fs.String("c", "goals", "collection")
	scope := fs.String("scope", "all", "public, mine or all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.api(*c)
	if err != nil {
		return err
	}

	s := feed.ScopeAll
	switch *scope {
	case "public":
		s = feed.ScopePublic
	case "mine":
		s = feed.ScopeMine
	}
	f := feed.New(api, a.viewer(), feed.WithScope(s), feed.WithLogger(a.log))
	defer f.Close()

	items, err := f.Mount(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tLIKES\tLIKED\tCOMMENTS\tCREATED")
	for _, it := range items {
		st := f.Card(it.ID).LikeState()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%d\t%s\n",
			it.ID, it.Title, it.Author.Email, st.LikeCount, st.Liked, it.CommentCount, it.CreatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func cmdPost(ctx context.Context, a *app, args []string) error {
	fs := newFlags("post")
	c := fs.String("c", "goals", "collection")
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	start := fs.String("start", "", "start date (2006-01-02)")
	end := fs.String("end", "", "end date (2006-01-02)")
	file := fs.String("file", "", "optional image or video")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.api(*c)
	if err != nil {
		return err
	}

	previews := feed.NewPreviews()
	form := feed.NewForm(previews, feed.LimitsFromConfig(a.cfg.Upload))
	defer form.Dismiss()
	form.SetTitle(*title)
	form.SetDescription(*desc)
	startDate, err := parseDate(*start)
	if err != nil {
		return err
	}
	endDate, err := parseDate(*end)
	if err != nil {
		return err
	}
	form.SetDates(startDate, endDate)
	if *file != "" {
		fh, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer fh.Close()
		if err := form.SetFile(filepath.Base(*file), fh); err != nil {
			return err
		}
	}

	f := feed.New(api, a.viewer(), feed.WithLogger(a.log))
	defer f.Close()
	item, err := f.Submit(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %s\n", item.Collection, item.ID)
	return nil
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(content.DateLayout, v)
	if err != nil {
		return nil, apiclient.Validation("invalid date %q", v)
	}
	return &t, nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags("delete")
	c := fs.String("c", "goals", "collection")
	id := fs.String("id", "", "content id")
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.api(*c)
	if err != nil {
		return err
	}
	f := feed.New(api, a.viewer(), feed.WithScope(feed.ScopeMine), feed.WithLogger(a.log))
	defer f.Close()
	if _, err := f.Mount(ctx); err != nil {
		return err
	}
	deleted, err := f.Delete(ctx, *id, func(it model.ContentItem) bool {
		return confirm(fmt.Sprintf("delete %q?", it.Title), *yes)
	})
	if err != nil {
		return err
	}
	if deleted {
		fmt.Println("deleted")
	}
	return nil
}

// card 为单条内容构造卡片控制器
func (a *app) card(ctx context.Context, collection, id string) (*interaction.Controller, error) {
	api, err := a.api(collection)
	if err != nil {
		return nil, err
	}
	items, err := api.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			return interaction.NewController(it, a.viewer(), api,
				interaction.WithLogger(a.log),
				interaction.WithNotifier(cliNotifier{}),
			), nil
		}
	}
	return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Message: "content " + id + " not found"}
}

// cliNotifier 成功提示打印到标准输出，失败由 main 统一输出
type cliNotifier struct{}

func (cliNotifier) Success(_ interaction.Operation, message string) {
	fmt.Println(message)
}

func (cliNotifier) Failure(interaction.Operation, error) {}

func itemFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := newFlags(name)
	c := fs.String("c", "goals", "collection")
	id := fs.String("id", "", "content id")
	return fs, c, id
}

func cmdLike(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("like")
	if err := fs.Parse(args); err != nil {
		return err
	}
	card, err := a.card(ctx, *c, *id)
	if err != nil {
		return err
	}
	st, err := card.ToggleLike(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("liked=%v likes=%d\n", st.Liked, st.LikeCount)
	return nil
}

func cmdLikes(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("likes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.api(*c)
	if err != nil {
		return err
	}
	users, err := interaction.NewController(model.ContentItem{ID: *id}, a.viewer(), api).LikedUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%s <%s>\n", u.Username, u.Email)
	}
	return nil
}

func printComments(comments []model.Comment) {
	if len(comments) == 0 {
		fmt.Println("No comments yet")
		return
	}
	stats := model.StatsOf(comments)
	fmt.Printf("%d comments from %d people\n", stats.TotalComments, stats.UniqueCommenters)
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	for _, cm := range comments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cm.ID, cm.Author.Email, cm.CreatedAt.Format(time.DateTime), cm.Text)
	}
	_ = w.Flush()
}

func cmdComments(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("comments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := a.api(*c)
	if err != nil {
		return err
	}
	comments, err := interaction.NewController(model.ContentItem{ID: *id}, a.viewer(), api).EnsureComments(ctx)
	if err != nil {
		return err
	}
	printComments(comments)
	return nil
}

func cmdComment(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("comment")
	text := fs.String("text", "", "comment text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	card, err := a.card(ctx, *c, *id)
	if err != nil {
		return err
	}
	_, err = card.AddComment(ctx, *text)
	return err
}

func cmdEditComment(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("edit-comment")
	commentID := fs.String("comment", "", "comment id")
	text := fs.String("text", "", "new text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	card, err := a.card(ctx, *c, *id)
	if err != nil {
		return err
	}
	if _, err := card.LoadComments(ctx); err != nil {
		return err
	}
	if err := card.BeginEdit(*commentID); err != nil {
		return err
	}
	if err := card.SetEditDraft(*text); err != nil {
		return err
	}
	_, err = card.SaveEdit(ctx)
	return err
}

func cmdDeleteComment(ctx context.Context, a *app, args []string) error {
	fs, c, id := itemFlags("delete-comment")
	commentID := fs.String("comment", "", "comment id")
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	card, err := a.card(ctx, *c, *id)
	if err != nil {
		return err
	}
	if _, err := card.LoadComments(ctx); err != nil {
		return err
	}
	_, err = card.DeleteComment(ctx, *commentID, func(cm model.Comment) bool {
		return confirm(fmt.Sprintf("delete comment %q?", cm.Text), *yes)
	})
	return err
}

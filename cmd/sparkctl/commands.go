package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"text/tabwriter"

	"github.com/Proton-105/spark-client/internal/api"
	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
	"github.com/Proton-105/spark-client/internal/lifecycle"
	"github.com/Proton-105/spark-client/internal/middleware"
	"github.com/Proton-105/spark-client/pkg/graceful"
	"github.com/Proton-105/spark-client/pkg/logger"
	"github.com/Proton-105/spark-client/pkg/metrics"
)

var commandSummaries = []struct {
	name    string
	summary string
}{
	{"login", "sign in with -phone and -firebase-token and store the session"},
	{"logout", "end the session and forget stored credentials"},
	{"me", "show the signed-in user"},
	{"events", "list events (-page, -limit, -all)"},
	{"notifications", "list notifications (-page, -limit, -unread)"},
	{"read", "mark a notification read by id, or every one with -all"},
	{"matches", "list matches for -user (defaults to the signed-in user)"},
	{"veriff-status", "show the verification decision for a session id (-wait to poll)"},
	{"health", "check backend and storage reachability"},
	{"watch", "poll notifications and serve /metrics, /livez and /readyz"},
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: sparkctl <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commandSummaries {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
}

func (a *app) commands() map[string]middleware.Command {
	return map[string]middleware.Command{
		"login":         a.login,
		"logout":        a.logout,
		"me":            a.me,
		"events":        a.events,
		"notifications": a.notifications,
		"read":          a.read,
		"matches":       a.matches,
		"veriff-status": a.veriffStatus,
		"health":        a.health,
		"watch":         a.watch,
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands()[name]
	if !ok {
		return &usageError{msg: fmt.Sprintf("unknown command %q", name)}
	}
	return middleware.Metrics(name, cmd)(ctx, args)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{msg: fmt.Sprintf("%s: %v", fs.Name(), err)}
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	phone := fs.String("phone", "", "phone number in E.164 form")
	token := fs.String("firebase-token", "", "Firebase ID token")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	tokens, err := a.spark.Auth.SignIn(ctx, domain.SignInRequest{PhoneE164: *phone, FirebaseIDToken: *token})
	if err != nil {
		return err
	}
	if err := a.setSession(ctx, api.SessionFromTokens(tokens)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.translator.T("cli.signed_in"))
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	logoutErr := a.spark.Auth.Logout(ctx)
	purgeErr := a.persistor.Purge(ctx)
	if err := errors.Join(logoutErr, purgeErr); err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.translator.T("cli.signed_out"))
	return nil
}

func (a *app) me(ctx context.Context, _ []string) error {
	user, err := a.spark.Users.CurrentUser(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", user.ID)
	fmt.Fprintf(tw, "name\t%s\n", user.FullName())
	fmt.Fprintf(tw, "email\t%s\n", user.Email)
	fmt.Fprintf(tw, "status\t%s\n", user.Status)
	fmt.Fprintf(tw, "balance\t%s\n", user.Balance)
	return tw.Flush()
}

func (a *app) events(ctx context.Context, args []string) error {
	fs := newFlagSet("events")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	all := fs.Bool("all", false, "walk every page")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		events []domain.Event
		footer string
	)
	if *all {
		var err error
		if events, err = a.spark.Events.ListAll(ctx, *limit); err != nil {
			return err
		}
		footer = a.translator.Tf("cli.events_total", len(events))
	} else {
		result, err := a.spark.Events.List(ctx, domain.ListParams{Page: *page, Limit: *limit})
		if err != nil {
			return err
		}
		events = result.Items
		footer = a.translator.Tf("cli.page_of", result.Page, result.TotalPages())
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCITY\tCAPACITY")
	for _, event := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", event.ID, event.Title, event.City, event.Capacity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(a.out, footer)
	return nil
}

func (a *app) notifications(ctx context.Context, args []string) error {
	fs := newFlagSet("notifications")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	unread := fs.Bool("unread", false, "only unread notifications")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	result, err := a.spark.Notifications.List(ctx, domain.ListParams{Page: *page, Limit: *limit})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREAD\tTITLE")
	for _, n := range result.Items {
		if *unread && n.IsRead {
			continue
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\n", n.ID, n.IsRead, n.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.translator.Tf("cli.unread_on_page", api.CountUnread(result.Items)))
	return nil
}

func (a *app) read(ctx context.Context, args []string) error {
	fs := newFlagSet("read")
	all := fs.Bool("all", false, "mark every notification read")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *all {
		resp, err := a.spark.Notifications.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.translator.Tf("cli.marked_all_read", resp.Updated))
		return nil
	}

	if fs.NArg() != 1 {
		return &usageError{msg: "read: expected one notification id or -all"}
	}
	n, err := a.spark.Notifications.MarkRead(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.translator.Tf("cli.marked_read", n.ID))
	return nil
}

func (a *app) matches(ctx context.Context, args []string) error {
	fs := newFlagSet("matches")
	userID := fs.String("user", "", "user id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *userID == "" {
		me, err := a.spark.Users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		*userID = me.ID
	}

	matches, err := a.spark.Users.Matches(ctx, *userID)
	if err != nil {
		return err
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tNAME")
	for _, m := range matches {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\n", m.Score, m.User.ID, m.User.FullName())
	}
	return tw.Flush()
}

func (a *app) veriffStatus(ctx context.Context, args []string) error {
	fs := newFlagSet("veriff-status")
	wait := fs.Bool("wait", false, "poll until the decision is final")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return &usageError{msg: "veriff-status: expected one session id"}
	}

	var (
		decision domain.VeriffDecision
		err      error
	)
	if *wait {
		decision, err = a.spark.Veriff.WaitForDecision(ctx, fs.Arg(0), a.cfg.Veriff.PollInterval)
	} else {
		decision, err = a.spark.Veriff.Decision(ctx, fs.Arg(0))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.translator.T("veriff."+string(decision.Status)))
	if decision.Reason != "" {
		fmt.Fprintln(a.out, decision.Reason)
	}
	return nil
}

func (a *app) health(ctx context.Context, _ []string) error {
	results := a.checker.Check(ctx)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, results[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	return a.checker.Healthy(ctx)
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	addr := fs.String("addr", a.cfg.Metrics.Addr, "listen address for metrics and probes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	probes := lifecycle.NewProbes(a.log, a.checker)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/livez", lifecycle.Handler(probes.Liveness))
	mux.Handle("/readyz", lifecycle.Handler(probes.Readiness))

	server := graceful.NewServer(a.log, *addr, logger.Middleware(middleware.New(a.log)(mux)), a.cfg.Metrics.ShutdownTimeout)
	if err := server.Listen(); err != nil {
		return err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.shutdown.Add(lifecycle.CancelHook("pollers", cancel))

	spark := a.spark
	go cache.NewCleaner(spark.Client.Cache(), a.log, a.cfg.Cache.KeepUnusedFor, a.cfg.Cache.CleanupInterval).Run(pollCtx)

	collector := metrics.NewNotificationCollector(spark.Notifications.UnreadCount, a.log, a.cfg.Watch.PollInterval, func(_, current int) {
		fmt.Fprintln(a.out, a.translator.Tf("cli.unread", current))
	})
	go collector.Run(pollCtx)

	sub, err := spark.Users.SubscribeCurrentUser()
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	go a.followUser(pollCtx, sub)

	if a.fileStore != nil {
		go func() {
			err := a.fileStore.Watch(pollCtx, a.log, func() {
				a.log.Info("stored session changed on disk; restart watch to use it", slog.String("path", a.fileStore.Path()))
			})
			if err != nil && pollCtx.Err() == nil {
				a.log.Warn("session file watch stopped", slog.Any("error", err))
			}
		}()
	}

	fmt.Fprintln(a.out, a.translator.Tf("cli.serving_metrics", server.Addr()))
	return server.ListenAndServe(ctx)
}

func (a *app) followUser(ctx context.Context, sub *api.Subscription[domain.User]) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-sub.Updates():
			if !ok {
				return
			}
			switch {
			case state.Err != nil:
				message, _ := a.errs.Handle(ctx, state.Err)
				fmt.Fprintln(a.out, message)
			case state.HasData && !state.Loading():
				fmt.Fprintln(a.out, a.translator.Tf("cli.signed_in_as", state.Data.FullName()))
			}
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/api"
	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/internal/report"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

func serveCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	if cs.cfg.Logging.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Dependencies{
		Records:      cs.records,
		Matcher:      cs.engine,
		Notifier:     cs.notifier,
		Settings:     cs.cfg.Matcher,
		Metrics:      cs.metrics,
		Logger:       cs.logger.Named("http"),
		MaxBodyBytes: cs.cfg.HTTP.MaxBodyBytes,
	})

	addr := fmt.Sprintf(":%d", cs.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cs.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cs.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		cs.logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("driver", cs.cfg.Store.Driver),
			zap.String("strategy", cs.engine.StrategyName()),
		)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		cs.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cs.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		cs.logger.Error("Error during shutdown", zap.Error(err))
		return err
	}
	cs.logger.Info("Server stopped gracefully")
	return nil
}

func addCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	itemType, err := model.ParseItemType(c.String("type"))
	if err != nil {
		return err
	}
	in := model.NewItem{
		Type:     itemType,
		Date:     c.String("date"),
		Contact:  c.String("contact"),
		ImageRef: c.String("image-ref"),
	}
	if c.IsSet("name") {
		in.Name = model.Str(c.String("name"))
	}
	if c.IsSet("description") {
		in.Description = model.Str(c.String("description"))
	}
	if c.IsSet("place") {
		in.Place = model.Str(c.String("place"))
	}

	item, err := cs.records.Create(c.Context, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Created %s item %s\n\n", item.Type, item.ID)

	topK := cs.cfg.Matcher.ClampTopK(c.Int("top-k"), cs.cfg.Matcher.DefaultTopK)
	set, err := cs.engine.FindMatches(c.Context, item, topK)
	if err != nil {
		return err
	}
	return report.Render(c.App.Writer, report.Build(item, set))
}

func listCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	filter := store.Filter{Search: c.String("query")}
	if raw := c.String("type"); raw != "" {
		if filter.Type, err = model.ParseItemType(raw); err != nil {
			return err
		}
	}

	items, err := cs.records.List(c.Context, filter)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Type, item.Date, item.NameText(), item.PlaceText())
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	if err := cs.records.Delete(c.Context, c.String("id")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted item %s\n", c.String("id"))
	return nil
}

func matchCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	item, err := cs.records.Get(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	topK := cs.cfg.Matcher.ClampTopK(c.Int("top-k"), cs.cfg.Matcher.DefaultTopK)
	set, err := cs.engine.FindMatches(c.Context, item, topK)
	if err != nil {
		return err
	}
	return writeJSON(c, set)
}

func reportCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	item, err := cs.records.Get(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	topK := cs.cfg.Matcher.ClampTopK(c.Int("top-k"), cs.cfg.Matcher.DefaultTopK)
	set, err := cs.engine.FindMatches(c.Context, item, topK)
	if err != nil {
		return err
	}
	return report.Render(c.App.Writer, report.Build(item, set))
}

func dashboardCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	itemType, err := model.ParseItemType(c.String("type"))
	if err != nil {
		return err
	}
	topK := cs.cfg.Matcher.ClampTopK(c.Int("top-k"), cs.cfg.Matcher.DashboardTopK)
	sets, err := cs.engine.Dashboard(c.Context, itemType, topK)
	if err != nil {
		return err
	}
	for i, set := range sets {
		if i > 0 {
			fmt.Fprintln(c.App.Writer)
		}
		if err := report.Render(c.App.Writer, report.Build(set.Source, set)); err != nil {
			return err
		}
	}
	return nil
}

func notifyCommand(c *cli.Context) error {
	cs, err := build(c)
	if err != nil {
		return err
	}
	defer cs.Close()

	source, err := cs.records.Get(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	set, err := cs.engine.FindMatches(c.Context, source, math.MaxInt)
	if err != nil {
		return err
	}
	var match *model.MatchResult
	for i := range set.Matches {
		if set.Matches[i].ID == c.String("match") {
			match = &set.Matches[i]
			break
		}
	}
	if match == nil {
		return fmt.Errorf("item %s is not a %s item on record", c.String("match"), source.Type.Opposite())
	}

	if !c.Bool("send") {
		msg, err := notify.Compose(source, *match)
		if err != nil {
			return err
		}
		return writeJSON(c, msg)
	}

	msg, err := cs.notifier.Notify(c.Context, source, *match)
	if err != nil {
		return err
	}
	return writeJSON(c, msg)
}

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

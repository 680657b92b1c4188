package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/go-lostfound/config"
	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/model"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"lostfound", "--log-level", "error"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runApp(t, args...)
	require.NoError(t, err)
	return out
}

// createdID extracts the id from the "Created <type> item <id>" line.
func createdID(t *testing.T, out string) string {
	t.Helper()
	firstLine, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(firstLine)
	require.Len(t, fields, 4, "unexpected output: %q", out)
	return fields[3]
}

func resolveWith(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var (
		cfg        config.Config
		resolveErr error
	)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, resolveErr = resolveConfig(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"lostfound"}, args...)))
	return cfg, resolveErr
}

func TestResolveConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := resolveWith(t)
		require.NoError(t, err)
		assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
		assert.Equal(t, config.StrategyRebuild, cfg.Matcher.Strategy)
		assert.Equal(t, 5, cfg.Matcher.DefaultTopK)
	})

	t.Run("flags override", func(t *testing.T) {
		cfg, err := resolveWith(t, "--driver", "badger", "--store-path", "/tmp/lf", "--strategy", "incremental")
		require.NoError(t, err)
		assert.Equal(t, config.DriverBadger, cfg.Store.Driver)
		assert.Equal(t, "/tmp/lf", cfg.Store.Path)
		assert.Equal(t, config.StrategyIncremental, cfg.Matcher.Strategy)
	})

	t.Run("file then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lostfound.yaml")
		require.NoError(t, os.WriteFile(path, []byte("matcher:\n  default_top_k: 9\n  strategy: incremental\n"), 0o600))

		cfg, err := resolveWith(t, "--config", path, "--strategy", "rebuild")
		require.NoError(t, err)
		assert.Equal(t, 9, cfg.Matcher.DefaultTopK)
		assert.Equal(t, config.StrategyRebuild, cfg.Matcher.Strategy)
	})

	t.Run("invalid driver", func(t *testing.T) {
		_, err := resolveWith(t, "--driver", "sqlite")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.driver")
	})

	t.Run("postgres needs a dsn", func(t *testing.T) {
		_, err := resolveWith(t, "--driver", "postgres")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.dsn")
	})
}

func TestCommands_MemorySnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "items.gob")
	base := []string{"--snapshot", snapshot}
	with := func(args ...string) []string { return append(append([]string{}, base...), args...) }

	foundOut := mustRun(t, with("add", "--type", "found", "--name", "Black wallet", "--place", "Library", "--contact", "desk@example.com")...)
	foundID := createdID(t, foundOut)
	assert.Contains(t, foundOut, "none (no lost items on record)")

	mustRun(t, with("add", "--type", "found", "--name", "Red umbrella", "--place", "Parking lot")...)

	lostOut := mustRun(t, with("add", "--type", "lost", "--name", "Black wallet", "--place", "Library", "--contact", "owner@example.com", "--top-k", "1")...)
	lostID := createdID(t, lostOut)
	assert.Contains(t, lostOut, "- Found | Black wallet | Score: 1.00 | Place: Library | Contact: desk@example.com")

	t.Run("list", func(t *testing.T) {
		out := mustRun(t, with("list", "--type", "found")...)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], foundID+"\t"))

		out = mustRun(t, with("list", "-q", "UMBRELLA")...)
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
	})

	t.Run("match", func(t *testing.T) {
		out := mustRun(t, with("match", "--id", lostID, "--top-k", "2")...)
		var set model.MatchSet
		require.NoError(t, json.Unmarshal([]byte(out), &set))
		require.Len(t, set.Matches, 2)
		assert.Equal(t, foundID, set.Matches[0].ID)
		assert.Equal(t, config.StrategyRebuild, set.Strategy)
	})

	t.Run("report", func(t *testing.T) {
		out := mustRun(t, with("report", "--id", lostID, "--top-k", "1")...)
		assert.Contains(t, out, "Lost & Found Report for Lost - Black wallet")
		assert.Contains(t, out, "Contact: desk@example.com")
	})

	t.Run("dashboard", func(t *testing.T) {
		out := mustRun(t, with("dashboard", "--type", "found", "--top-k", "1")...)
		assert.Equal(t, 2, strings.Count(out, "Lost & Found Report for Found"))
	})

	t.Run("notify composes without sending", func(t *testing.T) {
		out := mustRun(t, with("notify", "--id", lostID, "--match", foundID)...)
		var msg notify.Message
		require.NoError(t, json.Unmarshal([]byte(out), &msg))
		assert.Equal(t, notify.ChannelEmail, msg.Channel)
		assert.Equal(t, "desk@example.com", msg.To)
	})

	t.Run("notify send while disabled", func(t *testing.T) {
		_, err := runApp(t, with("notify", "--id", lostID, "--match", foundID, "--send")...)
		require.Error(t, err)
		assert.ErrorIs(t, err, notify.ErrDisabled)
	})

	t.Run("delete", func(t *testing.T) {
		mustRun(t, with("delete", "--id", foundID)...)
		_, err := runApp(t, with("match", "--id", foundID)...)
		require.Error(t, err)
	})
}

func TestCommands_Badger(t *testing.T) {
	dir := t.TempDir()
	base := []string{"--driver", "badger", "--store-path", dir, "--strategy", "incremental"}

	out := mustRun(t, append(append([]string{}, base...), "add", "--type", "lost", "--name", "Phone", "--description", "cracked screen")...)
	id := createdID(t, out)

	out = mustRun(t, append(append([]string{}, base...), "list")...)
	assert.Contains(t, out, id+"\tlost\t")
}

func TestCommands_RequiredFlags(t *testing.T) {
	_, err := runApp(t, "add", "--name", "Scarf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type")

	_, err = runApp(t, "add", "--type", "stolen")
	require.Error(t, err)
}

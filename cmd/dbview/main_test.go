package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func runCommand(tb testing.TB, args ...string) error {
	tb.Helper()

	_, err := runCommandOutput(tb, args...)
	return err
}

func runCommandOutput(tb testing.TB, args ...string) (string, error) {
	tb.Helper()

	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	err := cmd.Run(tb.Context(), append([]string{"dbview"}, args...))
	return out.String(), err
}

func countViews(tb testing.TB, path string) int {
	tb.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(tb, err)
	defer db.Close()

	var n int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'view'").Scan(&n)
	require.NoError(tb, err)

	return n
}

func TestParseAttach(t *testing.T) {
	attach, err := parseAttach([]string{"aux=/tmp/aux.sqlite", "logs=/tmp/logs.sqlite"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"aux":  "/tmp/aux.sqlite",
		"logs": "/tmp/logs.sqlite",
	}, attach)

	_, err = parseAttach([]string{"aux"})
	require.Error(t, err)

	_, err = parseAttach([]string{"=/tmp/aux.sqlite"})
	require.Error(t, err)
}

func TestCommands(t *testing.T) {
	t.Run("CreateAndDrop", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "main.sqlite")

		require.NoError(t, runCommand(t, "create", path, "v1", "SELECT 1"))
		require.Equal(t, 1, countViews(t, path))

		require.Error(t, runCommand(t, "create", path, "v1", "SELECT 1"))

		require.NoError(t, runCommand(t, "drop", "--database", "main", path, "v1"))
		require.Equal(t, 0, countViews(t, path))

		require.Error(t, runCommand(t, "drop", path, "v1"))
	})

	t.Run("DiffApply", func(t *testing.T) {
		source := filepath.Join(t.TempDir(), "source.sqlite")
		target := filepath.Join(t.TempDir(), "target.sqlite")

		require.NoError(t, runCommand(t, "create", source, "v1", "SELECT 1"))
		require.NoError(t, runCommand(t, "create", source, "v2", "SELECT 2"))
		require.NoError(t, runCommand(t, "create", target, "v3", "SELECT 3"))

		require.NoError(t, runCommand(t, "diff", "--apply", source, target))
		require.Equal(t, 2, countViews(t, target))
	})

	t.Run("DiffOutput", func(t *testing.T) {
		source := filepath.Join(t.TempDir(), "source.sqlite")
		target := filepath.Join(t.TempDir(), "target.sqlite")

		require.NoError(t, runCommand(t, "create", source, "v1", "SELECT 1"))

		out, err := runCommandOutput(t, "diff", source, target)
		require.NoError(t, err)
		require.Equal(t, "CREATE  VIEW \"main\".\"v1\" AS SELECT 1;\n", out)

		out, err = runCommandOutput(t, "diff", "--apply", source, target)
		require.NoError(t, err)
		require.NotEmpty(t, out)

		out, err = runCommandOutput(t, "diff", source, target)
		require.NoError(t, err)
		require.Empty(t, out)
	})

	t.Run("ListOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "main.sqlite")

		out, err := runCommandOutput(t, "list", path)
		require.NoError(t, err)
		require.Empty(t, out)

		require.NoError(t, runCommand(t, "create", path, "[my view]", "SELECT 1"))

		out, err = runCommandOutput(t, "list", path)
		require.NoError(t, err)
		require.Equal(t, "main.my view\tSELECT 1\n", out)
	})

	t.Run("MissingArguments", func(t *testing.T) {
		require.Error(t, runCommand(t, "create", filepath.Join(t.TempDir(), "main.sqlite")))
		require.Error(t, runCommand(t, "list"))
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		require.Error(t, runCommand(t, "list", "--driver", "mysql", filepath.Join(t.TempDir(), "main.sqlite")))
	})

	t.Run("AttachWithPostgres", func(t *testing.T) {
		require.Error(t, runCommand(t, "list", "--driver", "postgres", "--attach", "aux=/tmp/aux.sqlite", "postgres://localhost/dbview"))
	})
}

package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memo/db"
	"memo/model"
	"memo/selector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	ran  []string
	code int
	err  error
}

func (f *fakeExecutor) Run(_ context.Context, cmd string) (int, error) {
	f.ran = append(f.ran, cmd)
	return f.code, f.err
}

type selectFunc func(ctx context.Context, lines []string) (string, error)

func (f selectFunc) Select(ctx context.Context, lines []string) (string, error) {
	return f(ctx, lines)
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (f *fakeConfirmer) Confirm(cmd string) (bool, error) {
	f.asked = append(f.asked, cmd)
	return f.answer, nil
}

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	exec   *fakeExecutor
	path   string
}

func newTestApp(t *testing.T, mutate ...func(*Options)) *testApp {
	t.Helper()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ta := &testApp{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		exec:   &fakeExecutor{},
		path:   filepath.Join(t.TempDir(), "state", "memo.sqlite3"),
	}
	opts := Options{
		Store: db.Options{
			Path: ta.path,
			Now: func() time.Time {
				clock = clock.Add(time.Second)
				return clock
			},
		},
		Limit:    10,
		Stdout:   ta.stdout,
		Stderr:   ta.stderr,
		Executor: ta.exec,
	}
	for _, m := range mutate {
		m(&opts)
	}
	ta.App = New(opts)
	return ta
}

func (ta *testApp) save(t *testing.T, cmds ...string) {
	t.Helper()
	for _, c := range cmds {
		require.NoError(t, ta.Save(context.Background(), c))
	}
	ta.stdout.Reset()
}

func (ta *testApp) memo(t *testing.T, command string) model.Memo {
	t.Helper()
	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	for _, e := range es {
		if e.Command == command {
			return e.Memo
		}
	}
	t.Fatalf("no memo %q", command)
	return model.Memo{}
}

func TestSave_DedupAndRanking(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la", "git status", "ls -la")

	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, "ls -la", es[0].Command)
	assert.Equal(t, 2, es[0].UseCount)
	assert.Equal(t, 1, es[0].Ordinal)
	assert.Equal(t, "git status", es[1].Command)
}

func TestSave_ListsAfterSaving(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.Save(context.Background(), "  make test  "))
	out := ta.stdout.String()
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "make test\n")
	assert.Equal(t, "make test", ta.memo(t, "make test").Command)
}

func TestSave_Empty(t *testing.T) {
	ta := newTestApp(t)

	for _, c := range []string{"", "   ", "\t\n"} {
		err := ta.Save(context.Background(), c)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	}
	assert.Empty(t, ta.stdout.String())

	_, err := os.Stat(ta.path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "store must not be created")
}

func TestSave_Cap(t *testing.T) {
	ta := newTestApp(t, func(o *Options) { o.Cap = 2 })
	ta.save(t, "a", "b", "c")

	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, "c", es[0].Command)
	assert.Equal(t, "b", es[1].Command)
}

func TestList_NoMatches(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la", "git status")

	require.NoError(t, ta.List(context.Background(), "nonexistent", 10))
	assert.Empty(t, ta.stdout.String())
}

func TestList_FilterAndLimit(t *testing.T) {
	ta := newTestApp(t)
	for i := range 12 {
		ta.save(t, "echo "+strings.Repeat("x", i+1))
	}
	ta.save(t, "git status")

	require.NoError(t, ta.List(context.Background(), "", 10))
	assert.Equal(t, 10, strings.Count(ta.stdout.String(), "\n"))

	ta.stdout.Reset()
	require.NoError(t, ta.List(context.Background(), "ECHO", 0))
	assert.Equal(t, 12, strings.Count(ta.stdout.String(), "\n"))
	assert.NotContains(t, ta.stdout.String(), "git status")
}

func TestList_DoesNotTouch(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la")
	before := ta.memo(t, "ls -la")

	require.NoError(t, ta.List(context.Background(), "", 10))
	require.NoError(t, ta.Selectable(context.Background(), ""))

	after := ta.memo(t, "ls -la")
	assert.Equal(t, before, after)
}

func TestSelectable_Deterministic(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "a", "b", "c", "a", "d")

	require.NoError(t, ta.Selectable(context.Background(), ""))
	first := ta.stdout.String()
	ta.stdout.Reset()
	require.NoError(t, ta.Selectable(context.Background(), ""))

	assert.Equal(t, first, ta.stdout.String())
	assert.Equal(t, "1\td\n2\ta\n3\tc\n4\tb\n", first)
}

func TestSelectable_Unbounded(t *testing.T) {
	ta := newTestApp(t)
	for i := range 15 {
		ta.save(t, "cmd "+strings.Repeat("y", i+1))
	}

	require.NoError(t, ta.Selectable(context.Background(), ""))
	lines := strings.Split(strings.TrimSpace(ta.stdout.String()), "\n")
	require.Len(t, lines, 15)
	for i, line := range lines {
		n, err := selector.ParseSelection(line)
		require.NoError(t, err)
		assert.Equal(t, i+1, n)
	}
}

func TestPrint(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la", "git status")
	before := ta.memo(t, "ls -la")

	require.NoError(t, ta.Print(context.Background(), 2, ""))
	assert.Equal(t, "ls -la\n", ta.stdout.String())

	after := ta.memo(t, "ls -la")
	assert.Equal(t, before.UseCount+1, after.UseCount)
	assert.True(t, after.LastUsedAt.After(before.LastUsedAt))
}

func TestPrint_WithFilter(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "git status", "ls", "git push")

	require.NoError(t, ta.Print(context.Background(), 2, "git"))
	assert.Equal(t, "git status\n", ta.stdout.String())
}

func TestPrint_EmptyStore(t *testing.T) {
	ta := newTestApp(t)

	err := ta.Print(context.Background(), 1, "")
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	assert.Empty(t, ta.stdout.String())
}

func TestPrint_OutOfRangeTouchesNothing(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la")
	before := ta.memo(t, "ls -la")

	for _, k := range []int{0, 2, -1} {
		err := ta.Print(context.Background(), k, "")
		assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	}
	assert.Empty(t, ta.stdout.String())
	assert.Equal(t, before, ta.memo(t, "ls -la"))
}

func TestPrint_BeyondDisplayLimit(t *testing.T) {
	ta := newTestApp(t, func(o *Options) { o.Limit = 3 })
	ta.save(t, "first", "b", "c", "d", "e")

	require.NoError(t, ta.Print(context.Background(), 5, ""))
	assert.Equal(t, "first\n", ta.stdout.String())
}

func TestResolve_Soundness(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "a", "b", "c")

	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	for _, e := range es {
		m, err := ta.Resolve(context.Background(), "", e.Ordinal)
		require.NoError(t, err)
		assert.Equal(t, e.Memo, m)
	}

	_, err = ta.Resolve(context.Background(), "", 0)
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	_, err = ta.Resolve(context.Background(), "", len(es)+1)
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
}

func TestRun(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "make build")
	before := ta.memo(t, "make build")
	ta.exec.code = 7

	code, err := ta.Run(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, []string{"make build"}, ta.exec.ran)
	assert.Equal(t, before.UseCount+1, ta.memo(t, "make build").UseCount)
}

func TestRun_OutOfRange(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la")
	before := ta.memo(t, "ls -la")

	_, err := ta.Run(context.Background(), 2, "")
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
	assert.Empty(t, ta.exec.ran)
	assert.Equal(t, before.UseCount, ta.memo(t, "ls -la").UseCount)
}

func TestRun_RecordsUsageWhenExecutionFails(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "false")
	ta.exec.err = errors.New("shell missing")

	_, err := ta.Run(context.Background(), 1, "")
	require.Error(t, err)
	assert.Equal(t, 2, ta.memo(t, "false").UseCount)
}

func TestRun_DangerousDeclined(t *testing.T) {
	confirm := &fakeConfirmer{answer: false}
	ta := newTestApp(t, func(o *Options) {
		o.Confirmer = confirm
		o.IsDangerous = func(c string) bool { return strings.HasPrefix(c, "rm ") }
	})
	ta.save(t, "rm -rf build")

	_, err := ta.Run(context.Background(), 1, "")
	assert.ErrorIs(t, err, model.ErrAborted)
	assert.Equal(t, []string{"rm -rf build"}, confirm.asked)
	assert.Empty(t, ta.exec.ran)
	assert.Equal(t, 1, ta.memo(t, "rm -rf build").UseCount)
}

func TestRun_DangerousAccepted(t *testing.T) {
	confirm := &fakeConfirmer{answer: true}
	ta := newTestApp(t, func(o *Options) {
		o.Confirmer = confirm
		o.IsDangerous = func(c string) bool { return strings.HasPrefix(c, "rm ") }
	})
	ta.save(t, "rm -rf build", "ls")

	_, err := ta.Run(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"rm -rf build"}, ta.exec.ran)

	_, err = ta.Run(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, confirm.asked, 1, "safe commands are not confirmed")
}

func TestCopy(t *testing.T) {
	var copied string
	ta := newTestApp(t, func(o *Options) {
		o.Clipboard = func(s string) error {
			copied = s
			return nil
		}
	})
	ta.save(t, "docker compose up -d")

	require.NoError(t, ta.Copy(context.Background(), 1, ""))
	assert.Equal(t, "docker compose up -d", copied)
	assert.Equal(t, "copied [1]\n", ta.stdout.String())
	assert.Equal(t, 2, ta.memo(t, "docker compose up -d").UseCount)
}

func TestCopy_NoClipboard(t *testing.T) {
	ta := newTestApp(t, func(o *Options) {
		o.Clipboard = func(string) error { return errors.New("no clipboard utilities available") }
	})
	ta.save(t, "htop")

	require.NoError(t, ta.Copy(context.Background(), 1, ""))
	assert.Equal(t, "htop\n", ta.stdout.String())
	assert.Contains(t, ta.stderr.String(), "clipboard unavailable")
}

func TestDelete(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "a", "b")

	require.NoError(t, ta.Delete(context.Background(), 1, ""))
	assert.Contains(t, ta.stdout.String(), "deleted [1] b")

	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, es, 1)
	assert.Equal(t, "a", es[0].Command)

	err = ta.Delete(context.Background(), 5, "")
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)
}

func TestPrune(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "a", "b", "c", "d")

	n, err := ta.Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ta.Prune(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = ta.Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ta.Prune(context.Background(), -1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	es, err := ta.Entries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, es, 1)
	assert.Equal(t, "d", es[0].Command)
}

func TestPick(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls -la", "git push origin main", "make")

	var fed []string
	sel := selectFunc(func(_ context.Context, lines []string) (string, error) {
		fed = lines
		return lines[1], nil
	})

	require.NoError(t, ta.Pick(context.Background(), "", sel))
	assert.Equal(t, []string{"1\tmake", "2\tgit push origin main", "3\tls -la"}, fed)
	assert.Equal(t, "git push origin main\n", ta.stdout.String())
	assert.Equal(t, 2, ta.memo(t, "git push origin main").UseCount)
}

func TestPick_ResolvesAgainstFreshState(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "old", "new")

	sel := selectFunc(func(_ context.Context, lines []string) (string, error) {
		// Another shell saves while the picker is open.
		other := New(Options{Store: ta.opts.Store})
		require.NoError(t, other.Save(context.Background(), "newest"))
		return lines[0], nil
	})

	require.NoError(t, ta.Pick(context.Background(), "", sel))
	assert.Equal(t, "newest\n", ta.stdout.String())
}

func TestPick_Errors(t *testing.T) {
	ta := newTestApp(t)

	err := ta.Pick(context.Background(), "", selectFunc(func(context.Context, []string) (string, error) {
		t.Fatal("picker must not run on an empty store")
		return "", nil
	}))
	assert.ErrorIs(t, err, selector.ErrNoSelection)

	ta.save(t, "ls")

	err = ta.Pick(context.Background(), "", selectFunc(func(context.Context, []string) (string, error) {
		return "", selector.ErrNoSelection
	}))
	assert.ErrorIs(t, err, selector.ErrNoSelection)

	err = ta.Pick(context.Background(), "", selectFunc(func(context.Context, []string) (string, error) {
		return "git push", nil
	}))
	assert.ErrorIs(t, err, model.ErrMalformedSelection)

	err = ta.Pick(context.Background(), "", selectFunc(func(context.Context, []string) (string, error) {
		return "4\tgone", nil
	}))
	assert.ErrorIs(t, err, model.ErrInvalidOrdinal)

	assert.Empty(t, ta.stdout.String())
	assert.Equal(t, 1, ta.memo(t, "ls").UseCount)
}

func TestSaveLast(t *testing.T) {
	ta := newTestApp(t)
	hist := filepath.Join(t.TempDir(), ".zsh_history")
	require.NoError(t, os.WriteFile(hist, []byte(": 1:0;kubectl get pods\n: 2:0;memo\n"), 0o600))

	require.NoError(t, ta.SaveLast(context.Background(), hist, "memo"))
	assert.Contains(t, ta.stdout.String(), "kubectl get pods")

	require.NoError(t, ta.SaveLast(context.Background(), hist, "memo"))
	assert.Equal(t, 2, ta.memo(t, "kubectl get pods").UseCount)
}

func TestSaveLast_NoHistory(t *testing.T) {
	ta := newTestApp(t)
	ta.save(t, "ls")

	require.NoError(t, ta.SaveLast(context.Background(), filepath.Join(t.TempDir(), "none"), "memo"))
	assert.Contains(t, ta.stdout.String(), "ls")
	assert.Equal(t, 1, ta.memo(t, "ls").UseCount)
}

func TestStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	a := New(Options{Store: db.Options{Path: filepath.Join(blocker, "memo.sqlite3")}})
	err := a.List(context.Background(), "", 10)
	assert.ErrorIs(t, err, model.ErrStorage)
}

package terminal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/khafre/internal/input"
)

func newTestManager(t *testing.T) (*Manager, *fakeSpawner, *recordingBus) {
	t.Helper()
	sp := &fakeSpawner{}
	bus := &recordingBus{}
	m := NewManager(ManagerConfig{
		DefaultShell: "/bin/sh",
		Scrollback:   100,
		BatchWindow:  MinBatchWindow,
		ResizeWindow: 30 * time.Millisecond,
		Env:          []string{"KHAFRE=1"},
		EventBus:     bus,
		Spawner:      sp.spawn,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m, sp, bus
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(ManagerConfig{BatchWindow: time.Hour})

	assert.NotEmpty(t, m.cfg.DefaultShell)
	assert.Equal(t, 80, m.cfg.DefaultCols)
	assert.Equal(t, 24, m.cfg.DefaultRows)
	assert.Equal(t, MaxScrollback, m.cfg.Scrollback)
	assert.Equal(t, MaxBatchWindow, m.cfg.BatchWindow)
	assert.Equal(t, DefaultResizeWindow, m.cfg.ResizeWindow)
	assert.Equal(t, 0, m.Count())
}

func TestManagerSpawnAndOutput(t *testing.T) {
	m, sp, _ := newTestManager(t)

	require.NoError(t, m.Spawn("main", "/bin/zsh", "/tmp", 40, 10))
	assert.Equal(t, 1, m.Count())

	p := sp.last()
	assert.Equal(t, "/bin/zsh", p.opts.Shell)
	assert.Equal(t, "/tmp", p.opts.Dir)
	assert.Equal(t, 40, p.opts.Cols)
	assert.Equal(t, 10, p.opts.Rows)
	assert.Equal(t, []string{"KHAFRE=1"}, p.opts.Env)

	p.emit("$ echo hi\r\nhi\r\n$ ")
	require.Eventually(t, func() bool {
		snap, err := m.Snapshot("main")
		return err == nil && snap.Line(1) == "hi"
	}, waitFor, 5*time.Millisecond)

	snap, err := m.Snapshot("main")
	require.NoError(t, err)
	assert.Equal(t, "$ echo hi", snap.Line(0))
	assert.Equal(t, "$", snap.Line(2))
	assert.Equal(t, 40, snap.Cols)
}

func TestManagerDuplicateID(t *testing.T) {
	m, sp, _ := newTestManager(t)

	require.NoError(t, m.Spawn("dup", "", "", 80, 24))
	err := m.Spawn("dup", "", "", 80, 24)

	assert.ErrorIs(t, err, ErrSessionExists)
	assert.Equal(t, 1, sp.count(), "second spawn must not start a process")
	assert.Equal(t, 1, m.Count())
}

func TestManagerUnknownID(t *testing.T) {
	m, _, _ := newTestManager(t)

	assert.ErrorIs(t, m.Write("nope", []byte("x")), ErrSessionNotFound)
	assert.ErrorIs(t, m.Resize("nope", 80, 24), ErrSessionNotFound)
	assert.ErrorIs(t, m.Close("nope"), ErrSessionNotFound)
	assert.ErrorIs(t, m.Scroll("nope", 1), ErrSessionNotFound)
	assert.ErrorIs(t, m.SendKey("nope", input.KeyEvent{Key: input.KeyEnter}), ErrSessionNotFound)

	_, err := m.Snapshot("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = m.Subscribe("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.SelectionText("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, ok := m.Get("nope")
	assert.False(t, ok)
}

func TestManagerSpawnError(t *testing.T) {
	m, sp, bus := newTestManager(t)
	sp.err = launchError("/no/such/shell", errors.New("executable file not found"))

	err := m.Spawn("bad", "/no/such/shell", "", 80, 24)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessLaunchFailed)
	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "/no/such/shell", spawnErr.Shell)
	assert.Equal(t, 0, m.Count())
	_, created := bus.find("terminal.created")
	assert.False(t, created)

	// The ID is free again.
	sp.err = nil
	require.NoError(t, m.Spawn("bad", "", "", 80, 24))
}

func TestManagerInvalidSize(t *testing.T) {
	m := NewManager(ManagerConfig{DefaultShell: "/bin/sh"})

	err := m.Spawn("x", "", "", 70000, 24)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Equal(t, 0, m.Count())
}

func TestManagerResizeCoalesced(t *testing.T) {
	m, sp, _ := newTestManager(t)
	require.NoError(t, m.Spawn("r", "", "", 80, 24))
	p := sp.last()

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Resize("r", 80+i, 24+i))
	}
	require.Eventually(t, func() bool { return len(p.resizeCalls()) > 0 }, waitFor, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, []winSize{{cols: 89, rows: 33}}, p.resizeCalls())
	snap, err := m.Snapshot("r")
	require.NoError(t, err)
	assert.Equal(t, 89, snap.Cols)
	assert.Equal(t, 33, snap.Rows)
}

func TestManagerChildExitRemovesSession(t *testing.T) {
	m, sp, bus := newTestManager(t)
	require.NoError(t, m.Spawn("gone", "", "", 80, 24))
	s, ok := m.Get("gone")
	require.True(t, ok)

	sp.last().exit(3)

	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("session not closed after child exit")
	}
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 3, s.ExitCode())

	ev, ok := bus.find("terminal.closed")
	require.True(t, ok)
	assert.Equal(t, "gone", ev.data["id"])
	assert.Equal(t, 3, ev.data["exitCode"])

	assert.ErrorIs(t, m.Write("gone", []byte("x")), ErrSessionNotFound)

	// The ID can be reused.
	require.NoError(t, m.Spawn("gone", "", "", 80, 24))
}

func TestManagerClose(t *testing.T) {
	m, sp, _ := newTestManager(t)
	require.NoError(t, m.Spawn("c", "", "", 80, 24))
	s, _ := m.Get("c")

	require.NoError(t, m.Close("c"))

	assert.True(t, sp.last().isClosed())
	assert.Equal(t, 0, m.Count())
	select {
	case <-s.Done():
	default:
		t.Fatal("Close returned before teardown finished")
	}
	assert.ErrorIs(t, m.Close("c"), ErrSessionNotFound)
}

func TestManagerEvents(t *testing.T) {
	m, sp, bus := newTestManager(t)
	require.NoError(t, m.Spawn("ev", "", "", 80, 24))

	created, ok := bus.find("terminal.created")
	require.True(t, ok)
	assert.Equal(t, "ev", created.data["id"])
	assert.Equal(t, "/bin/sh", created.data["shell"])
	assert.Contains(t, created.data, "timestamp")

	sp.last().emit("\x1b]0;build\x07\x07\x1b]7;file:///srv/app\x07\x1b]52;c;aGk=\x07")

	require.Eventually(t, func() bool {
		_, ok := bus.find("terminal.clipboard")
		return ok
	}, waitFor, 5*time.Millisecond)

	title, ok := bus.find("terminal.title")
	require.True(t, ok)
	assert.Equal(t, "build", title.data["text"])
	assert.Equal(t, "ev", title.data["id"])

	_, ok = bus.find("terminal.bell")
	assert.True(t, ok)

	cwd, ok := bus.find("terminal.cwd")
	require.True(t, ok)
	assert.Equal(t, "/srv/app", cwd.data["text"])

	clip, _ := bus.find("terminal.clipboard")
	assert.Equal(t, "hi", clip.data["text"])
}

func TestManagerSubscribe(t *testing.T) {
	m, sp, _ := newTestManager(t)
	require.NoError(t, m.Spawn("sub", "", "", 20, 4))

	updates, cancel, err := m.Subscribe("sub")
	require.NoError(t, err)
	defer cancel()
	<-updates

	sp.last().emit("ping")
	select {
	case u := <-updates:
		assert.Equal(t, "ping", u.Snapshot.Line(0))
	case <-time.After(waitFor):
		t.Fatal("no update after output")
	}
}

func TestManagerCreateGeneratesID(t *testing.T) {
	m, sp, _ := newTestManager(t)

	s, err := m.Create(SessionOptions{Env: []string{"EXTRA=2"}})
	require.NoError(t, err)

	_, err = uuid.Parse(s.ID())
	assert.NoError(t, err)
	assert.Equal(t, "/bin/sh", s.Shell())
	cols, rows := s.Size()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24, rows)
	assert.Equal(t, []string{"KHAFRE=1", "EXTRA=2"}, sp.last().opts.Env)
}

func TestManagerList(t *testing.T) {
	m, _, _ := newTestManager(t)
	for _, id := range []string{"one", "two", "three"} {
		require.NoError(t, m.Spawn(id, "", "", 80, 24))
		time.Sleep(time.Millisecond)
	}

	var ids []string
	for _, s := range m.List() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"one", "two", "three"}, ids)
}

func TestManagerShutdown(t *testing.T) {
	m, sp, _ := newTestManager(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Spawn(id, "", "", 80, 24))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, 0, m.Count())
	for _, p := range sp.ptys {
		assert.True(t, p.isClosed())
	}
	assert.ErrorIs(t, m.Spawn("d", "", "", 80, 24), ErrManagerClosed)
	assert.NoError(t, m.Shutdown(ctx))
}

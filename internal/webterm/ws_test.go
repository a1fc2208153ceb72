package webterm

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/khafre/internal/input"
	"github.com/dshills/khafre/internal/terminal"
)

// testFrame decodes any server frame.
type testFrame struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Text    string          `json:"text"`
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code"`
	Cols    int             `json:"cols"`
	Rows    int             `json:"rows"`
	Lines   [][]span        `json:"lines"`
}

func (f testFrame) screen() string {
	lines := make([]string, len(f.Lines))
	for i, spans := range f.Lines {
		var sb strings.Builder
		for _, s := range spans {
			sb.WriteString(s.Text)
		}
		lines[i] = strings.TrimRight(sb.String(), " ")
	}
	return strings.Join(lines, "\n")
}

func wsURL(env *testEnv, id string) string {
	return "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/sessions/" + id + "/ws"
}

func dial(t *testing.T, env *testEnv, id string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(env, id), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(testFrame) bool) testFrame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var f testFrame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func screenContains(text string) func(testFrame) bool {
	return func(f testFrame) bool {
		return f.Type == frameSnapshot && strings.Contains(f.screen(), text)
	}
}

func frameOfType(kind string) func(testFrame) bool {
	return func(f testFrame) bool { return f.Type == kind }
}

func startSession(t *testing.T, env *testEnv, id string) *echoPTY {
	t.Helper()
	_, err := env.mgr.Create(terminal.SessionOptions{ID: id, Cols: 40, Rows: 5})
	require.NoError(t, err)
	return env.spawner.last()
}

func TestWSInitialSnapshot(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	p.emit("ready$ ")

	conn := dial(t, env, "a")
	f := readUntil(t, conn, screenContains("ready$"))
	assert.Equal(t, 40, f.Cols)
	assert.Equal(t, 5, f.Rows)
	assert.Len(t, f.Lines, 5)
}

func TestWSUnknownSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(env, "missing"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, Config{})
	startSession(t, env, "a")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(env, "a"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWSAllowedOrigin(t *testing.T) {
	env := newTestEnv(t, Config{AllowedOrigins: []string{"http://app.example"}})
	startSession(t, env, "a")

	header := http.Header{"Origin": []string{"http://APP.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(env, "a"), header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestWSInput(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")
	readUntil(t, conn, frameOfType(frameSnapshot))

	send(t, conn, `{"type":"input","data":"echo hi\r"}`)
	readUntil(t, conn, screenContains("echo hi"))
	assert.Equal(t, "echo hi\r", p.written())
}

func TestWSKeys(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")
	readUntil(t, conn, frameOfType(frameSnapshot))

	send(t, conn, `{"type":"key","key":"Up"}`)
	send(t, conn, `{"type":"key","key":"c","mods":["ctrl"]}`)
	send(t, conn, `{"type":"key","key":"F5"}`)

	want := string(input.EncodeKey(input.KeyEvent{Key: input.KeyUp}, input.Modes{})) +
		string(input.EncodeKey(input.NewRuneEvent('c', input.ModCtrl), input.Modes{})) +
		string(input.EncodeKey(input.KeyEvent{Key: input.KeyF5}, input.Modes{}))
	require.Eventually(t, func() bool { return p.written() == want }, 2*time.Second, 5*time.Millisecond)

	send(t, conn, `{"type":"key","key":"Hyper"}`)
	f := readUntil(t, conn, frameOfType(frameError))
	assert.Contains(t, f.Message, "unknown key")
}

func TestWSMouse(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")

	p.emit("\x1b[?1000h\x1b[?1006hM")
	readUntil(t, conn, screenContains("M"))

	send(t, conn, `{"type":"mouse","button":"left","action":"press","row":1,"col":2}`)
	want := string(input.EncodeMouse(
		input.MouseEvent{Button: input.MouseLeft, Action: input.MousePress, Row: 1, Col: 2},
		input.Modes{Mouse: input.MouseNormal, MouseSGR: true}))
	require.NotEmpty(t, want)
	require.Eventually(t, func() bool { return strings.Contains(p.written(), want) },
		2*time.Second, 5*time.Millisecond)

	send(t, conn, `{"type":"mouse","button":"thumb"}`)
	f := readUntil(t, conn, frameOfType(frameError))
	assert.Contains(t, f.Message, "unknown mouse button")
}

func TestWSResize(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")
	readUntil(t, conn, frameOfType(frameSnapshot))

	send(t, conn, `{"type":"resize","cols":60,"rows":10}`)
	f := readUntil(t, conn, func(f testFrame) bool {
		return f.Type == frameSnapshot && f.Cols == 60
	})
	assert.Equal(t, 10, f.Rows)
	require.Eventually(t, func() bool {
		sizes := p.resizes()
		return len(sizes) > 0 && sizes[len(sizes)-1] == [2]int{60, 10}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWSSelection(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")
	p.emit("hello world")
	readUntil(t, conn, screenContains("hello world"))

	send(t, conn, `{"type":"select","action":"start","row":0,"col":0}`)
	send(t, conn, `{"type":"select","action":"update","row":0,"col":4}`)
	send(t, conn, `{"type":"select","action":"copy"}`)
	f := readUntil(t, conn, frameOfType(frameSelection))
	assert.Equal(t, "hello", f.Text)

	send(t, conn, `{"type":"select","action":"clear"}`)
	send(t, conn, `{"type":"select","action":"copy"}`)
	f = readUntil(t, conn, frameOfType(frameSelection))
	assert.Empty(t, f.Text)

	send(t, conn, `{"type":"select","action":"start","mode":"lasso"}`)
	f = readUntil(t, conn, frameOfType(frameError))
	assert.Contains(t, f.Message, "unknown selection mode")
}

func TestWSPingAndBadFrames(t *testing.T) {
	env := newTestEnv(t, Config{})
	startSession(t, env, "a")
	conn := dial(t, env, "a")

	send(t, conn, `{"type":"ping"}`)
	readUntil(t, conn, frameOfType(framePong))

	send(t, conn, `not json`)
	f := readUntil(t, conn, frameOfType(frameError))
	assert.JSONEq(t, `"INVALID_MESSAGE"`, string(f.Code))

	send(t, conn, `{"type":"teleport"}`)
	f = readUntil(t, conn, frameOfType(frameError))
	assert.Contains(t, f.Message, "unknown message type")
}

func TestWSRateLimit(t *testing.T) {
	env := newTestEnv(t, Config{InputRate: 0.001, InputBurst: 1})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")

	send(t, conn, `{"type":"input","data":"a"}`)
	send(t, conn, `{"type":"input","data":"b"}`)
	f := readUntil(t, conn, frameOfType(frameError))
	assert.JSONEq(t, `"RATE_LIMITED"`, string(f.Code))

	// Non-input frames are not limited.
	send(t, conn, `{"type":"ping"}`)
	readUntil(t, conn, frameOfType(framePong))
	assert.Equal(t, "a", p.written())
}

func TestWSEventsAndExit(t *testing.T) {
	env := newTestEnv(t, Config{})
	p := startSession(t, env, "a")
	conn := dial(t, env, "a")
	readUntil(t, conn, frameOfType(frameSnapshot))

	p.emit("\x1b]2;build\x07")
	f := readUntil(t, conn, frameOfType(frameEvent))
	assert.Equal(t, "title", f.Event)
	assert.Equal(t, "build", f.Text)

	p.exit(3)
	f = readUntil(t, conn, frameOfType(frameExit))
	assert.JSONEq(t, `3`, string(f.Code))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
	}
}

func TestWSSessionClosedByManager(t *testing.T) {
	env := newTestEnv(t, Config{})
	startSession(t, env, "a")
	conn := dial(t, env, "a")
	readUntil(t, conn, frameOfType(frameSnapshot))

	require.NoError(t, env.mgr.Close("a"))
	readUntil(t, conn, frameOfType(frameExit))
}

func TestParseKey(t *testing.T) {
	ev, err := parseKey("x", []string{"alt"})
	require.NoError(t, err)
	assert.Equal(t, input.NewRuneEvent('x', input.ModAlt), ev)

	ev, err = parseKey("é", nil)
	require.NoError(t, err)
	assert.Equal(t, input.NewRuneEvent('é', 0), ev)

	ev, err = parseKey("PageDown", []string{"shift", "ctrl"})
	require.NoError(t, err)
	assert.Equal(t, input.KeyPageDown, ev.Key)
	assert.True(t, ev.Mod.Has(input.ModShift))
	assert.True(t, ev.Mod.Has(input.ModCtrl))

	_, err = parseKey("", nil)
	assert.Error(t, err)
}

func TestParseMouse(t *testing.T) {
	ev, err := parseMouse(clientMessage{Button: "WheelUp", Row: 3, Col: 4})
	require.NoError(t, err)
	assert.Equal(t, input.MouseEvent{Button: input.MouseWheelUp, Action: input.MousePress, Row: 3, Col: 4}, ev)

	ev, err = parseMouse(clientMessage{Button: "none", Action: "motion", Mods: []string{"shift"}})
	require.NoError(t, err)
	assert.Equal(t, input.MouseNoButton, ev.Button)
	assert.Equal(t, input.MouseMotion, ev.Action)
	assert.Equal(t, input.ModShift, ev.Mod)

	_, err = parseMouse(clientMessage{Button: "left", Action: "double"})
	assert.Error(t, err)
}

package webterm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/dshills/khafre/internal/input"
	"github.com/dshills/khafre/internal/terminal"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// clientMessage is any frame a client sends; Type selects which fields
// apply.
type clientMessage struct {
	Type string `json:"type"`

	// input, paste
	Data string `json:"data,omitempty"`

	// key: a name such as "Enter" or "F5", or a single character
	Key  string   `json:"key,omitempty"`
	Mods []string `json:"mods,omitempty"`

	// resize
	Cols int `json:"cols,omitempty"`
	Rows int `json:"rows,omitempty"`

	// scroll: positive moves into history; "bottom" returns to the live
	// screen
	Delta int    `json:"delta,omitempty"`
	To    string `json:"to,omitempty"`

	// select: action is start, update, clear or copy
	Action string `json:"action,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Row    int    `json:"row,omitempty"`
	Col    int    `json:"col,omitempty"`

	// mouse: button is left, middle, right, none, wheelup or wheeldown;
	// action is press, release or motion
	Button string `json:"button,omitempty"`

	// focus
	Focused bool `json:"focused,omitempty"`
}

// wsConnWriter serializes writes to a connection.
type wsConnWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConnWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConnWriter) Close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, text)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	log := s.log.With("session", sess.ID(), "remote", r.RemoteAddr)
	log.Info("client attached")
	defer log.Info("client detached")

	c := &client{
		sess:    sess,
		writer:  &wsConnWriter{conn: conn},
		limiter: rate.NewLimiter(rate.Limit(s.cfg.InputRate), s.cfg.InputBurst),
		srv:     s,
	}

	updates, cancel := sess.Subscribe()
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		c.readLoop(conn)
	}()

	exited := false
	for {
		select {
		case <-readerDone:
			return
		case u, ok := <-updates:
			if !ok {
				if !exited {
					_ = c.writer.WriteJSON(exitFrame{Type: frameExit, Code: sess.ExitCode()})
				}
				c.writer.Close(websocket.CloseNormalClosure, "session ended")
				_ = conn.SetReadDeadline(time.Now().Add(time.Second))
				<-readerDone
				return
			}
			for _, ev := range u.Events {
				var err error
				if ev.Kind == terminal.EventExit {
					exited = true
					err = c.writer.WriteJSON(exitFrame{Type: frameExit, Code: ev.ExitCode})
				} else {
					err = c.writer.WriteJSON(buildEventFrame(ev))
				}
				if err != nil {
					return
				}
			}
			if u.Snapshot != nil {
				if err := c.writer.WriteJSON(buildSnapshotFrame(u.Snapshot, s.currentScheme())); err != nil {
					return
				}
			}
		}
	}
}

// client handles frames from one connection.
type client struct {
	sess    *terminal.Session
	writer  *wsConnWriter
	limiter *rate.Limiter
	srv     *Server
}

func (c *client) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				c.srv.log.Warn("websocket closed unexpectedly", "session", c.sess.ID(), "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "invalid json payload")
			continue
		}
		if err := c.handle(msg); err != nil {
			if errors.Is(err, terminal.ErrSessionClosed) {
				c.sendError("SESSION_CLOSED", err.Error())
				continue
			}
			c.sendError("INVALID_MESSAGE", err.Error())
		}
	}
}

func (c *client) sendError(code, message string) {
	_ = c.writer.WriteJSON(errorFrame{Type: frameError, Code: code, Message: message})
}

var errRateLimited = errors.New("input rate limit exceeded")

func (c *client) handle(msg clientMessage) error {
	switch msg.Type {
	case "input", "key", "paste", "mouse":
		if !c.limiter.Allow() {
			c.sendError("RATE_LIMITED", errRateLimited.Error())
			return nil
		}
	}

	switch msg.Type {
	case "ping":
		return c.writer.WriteJSON(textFrame{Type: framePong})
	case "input":
		_, err := c.sess.Write([]byte(msg.Data))
		return err
	case "paste":
		return c.sess.Paste(msg.Data)
	case "key":
		ev, err := parseKey(msg.Key, msg.Mods)
		if err != nil {
			return err
		}
		return c.sess.SendKey(ev)
	case "mouse":
		ev, err := parseMouse(msg)
		if err != nil {
			return err
		}
		return c.sess.SendMouse(ev)
	case "resize":
		return c.sess.Resize(msg.Cols, msg.Rows)
	case "scroll":
		if msg.To == "bottom" {
			c.sess.ScrollToBottom()
		} else {
			c.sess.Scroll(msg.Delta)
		}
		return nil
	case "focus":
		return c.sess.Focus(msg.Focused)
	case "select":
		return c.handleSelect(msg)
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}

func (c *client) handleSelect(msg clientMessage) error {
	switch msg.Action {
	case "start":
		mode := terminal.SelectNormal
		if msg.Mode != "" {
			mode = terminal.ParseSelectionMode(msg.Mode)
		}
		if mode == terminal.SelectNone {
			return errors.New("unknown selection mode: " + msg.Mode)
		}
		c.sess.StartSelection(mode, msg.Row, msg.Col)
	case "update":
		c.sess.UpdateSelection(msg.Row, msg.Col)
	case "clear":
		c.sess.ClearSelection()
	case "copy":
		return c.writer.WriteJSON(textFrame{Type: frameSelection, Text: c.sess.SelectionText()})
	default:
		return errors.New("unknown select action: " + msg.Action)
	}
	return nil
}

func parseKey(name string, mods []string) (input.KeyEvent, error) {
	mod := input.ParseModifiers(mods...)
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return input.NewRuneEvent(r, mod), nil
	}
	k := input.ParseKey(name)
	if k == input.KeyNone {
		return input.KeyEvent{}, errors.New("unknown key: " + name)
	}
	return input.KeyEvent{Key: k, Mod: mod}, nil
}

var mouseButtons = map[string]input.MouseButton{
	"left":      input.MouseLeft,
	"middle":    input.MouseMiddle,
	"right":     input.MouseRight,
	"none":      input.MouseNoButton,
	"wheelup":   input.MouseWheelUp,
	"wheeldown": input.MouseWheelDown,
}

var mouseActions = map[string]input.MouseAction{
	"":        input.MousePress,
	"press":   input.MousePress,
	"release": input.MouseRelease,
	"motion":  input.MouseMotion,
}

func parseMouse(msg clientMessage) (input.MouseEvent, error) {
	b, ok := mouseButtons[strings.ToLower(msg.Button)]
	if !ok {
		return input.MouseEvent{}, errors.New("unknown mouse button: " + msg.Button)
	}
	a, ok := mouseActions[strings.ToLower(msg.Action)]
	if !ok {
		return input.MouseEvent{}, errors.New("unknown mouse action: " + msg.Action)
	}
	return input.MouseEvent{
		Button: b,
		Action: a,
		Row:    msg.Row,
		Col:    msg.Col,
		Mod:    input.ParseModifiers(msg.Mods...),
	}, nil
}

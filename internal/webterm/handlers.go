package webterm

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/khafre/internal/terminal"
)

type listResponse struct {
	Sessions []terminal.Info `json:"sessions"`
}

type createRequest struct {
	ID         string   `json:"id"`
	Shell      string   `json:"shell"`
	Args       []string `json:"args"`
	Dir        string   `json:"dir"`
	Env        []string `json:"env"`
	Cols       int      `json:"cols"`
	Rows       int      `json:"rows"`
	Scrollback int      `json:"scrollback"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	sessions := s.mgr.List()
	resp := listResponse{Sessions: make([]terminal.Info, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, sess.Info())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid json body: "+err.Error())
			return
		}
	}

	sess, err := s.mgr.Create(terminal.SessionOptions{
		ID:         req.ID,
		Shell:      req.Shell,
		Args:       req.Args,
		Dir:        req.Dir,
		Env:        req.Env,
		Cols:       req.Cols,
		Rows:       req.Rows,
		Scrollback: req.Scrollback,
	})
	if err != nil {
		s.log.Warn("create session failed", "id", req.ID, "error", err)
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*terminal.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.mgr.Get(id)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "session not found: "+id)
	}
	return sess, ok
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		writeJSON(w, http.StatusOK, sess.Info())
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Close(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, buildSnapshotFrame(snap, s.currentScheme()))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(snap.Text()))
	case "ansi":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(snap.EncodeANSI()))
	default:
		writeAPIError(w, http.StatusBadRequest, "INVALID_FORMAT", "unknown format: "+format)
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/export"
	"github.com/matzehuels/diagrammer/pkg/history"
	"github.com/matzehuels/diagrammer/pkg/render"
)

// sessionResponse is the editing state returned by most endpoints.
type sessionResponse struct {
	Source     string        `json:"source"`
	Dialect    string        `json:"dialect"`
	Generating bool          `json:"generating"`
	Result     render.Result `json:"result"`
}

type sourceRequest struct {
	Source string `json:"source"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyResponse struct {
	Set     bool   `json:"set"`
	Masked  string `json:"masked"`
	Changed bool   `json:"changed,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a coded error as JSON with the status its code maps to.
func Error(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	JSON(w, errors.HTTPStatus(err), errorResponse{
		Error:   string(code),
		Title:   errors.Title(err),
		Message: errors.UserMessage(err),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "Request body must be JSON")
	}
	return nil
}

func (s *Server) state(res render.Result) sessionResponse {
	return sessionResponse{
		Source:     s.session.Source(),
		Dialect:    string(s.session.Dialect()),
		Generating: s.session.Generating(),
		Result:     res,
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.state(s.session.Result()))
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, err)
		return
	}
	res := s.session.SetSource(r.Context(), req.Source)
	JSON(w, http.StatusOK, s.state(res))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, err)
		return
	}
	res, err := s.session.Generate(r.Context(), req.Prompt)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, s.state(res))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	svg, ok := export.SVG(s.session.Result())
	if !ok {
		Error(w, errors.New(errors.ErrCodeNotFound, "No diagram has been rendered"))
		return
	}
	w.Header().Set("Content-Type", export.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ok, err := export.Write(w, s.session.Result())
	if err != nil {
		s.logger.Warn("export write failed", "error", err)
		return
	}
	if !ok {
		JSON(w, http.StatusConflict, errorResponse{
			Error:   string(errors.ErrCodeNotFound),
			Title:   "Nothing to Download",
			Message: "Render a diagram before downloading it",
		})
	}
}

func (s *Server) keyState(changed bool) keyResponse {
	creds := s.session.Credentials()
	return keyResponse{Set: creds.IsSet(), Masked: creds.Masked(), Changed: changed}
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.keyState(false))
}

func (s *Server) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, err)
		return
	}
	changed := s.session.Credentials().Save(req.Key)
	JSON(w, http.StatusOK, s.keyState(changed))
}

func (s *Server) handleClearKey(w http.ResponseWriter, r *http.Request) {
	s.session.Credentials().Clear()
	JSON(w, http.StatusOK, s.keyState(true))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := s.session.History().Recent(r.Context(), limit)
	if err != nil {
		Error(w, errors.Wrap(errors.ErrCodeInternal, err, "Failed to read history"))
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	JSON(w, http.StatusOK, entries)
}

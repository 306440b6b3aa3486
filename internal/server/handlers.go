package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/scribe/pkg/buildinfo"
	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/observability"
	"github.com/matzehuels/scribe/pkg/pipeline"
)

// createRequest is the body of POST /v1/programs.
type createRequest struct {
	Text     string   `json:"text"`
	Seed     uint64   `json:"seed,omitempty"`
	Date     string   `json:"date,omitempty"`
	NoDate   bool     `json:"no_date,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
	Mistakes *float64 `json:"mistakes,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`
}

type createResponse struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Minutes  int               `json:"minutes"`
	Seconds  int               `json:"seconds"`
	Estimate string            `json:"estimate"`
	Lines    int               `json:"lines"`
	Pages    int               `json:"pages"`
	Words    int               `json:"words"`
	Cached   bool              `json:"cached"`
	Links    map[string]string `json:"links"`
}

// record is what an ID resolves to.
type record struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Config string `json:"config"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	body := http.MaxBytesReader(w, r.Body, int64(s.opts.MaxText)+4096)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Text) > s.opts.MaxText {
		writeError(w, http.StatusRequestEntityTooLarge, string(errors.ErrCodeInvalidInput),
			fmt.Sprintf("text exceeds %d bytes", s.opts.MaxText))
		return
	}

	cfg := s.opts.Config
	if req.Speed != nil {
		cfg.Speed.Multiplier = *req.Speed
	}
	if req.Mistakes != nil {
		cfg.Mistakes.Probability = *req.Mistakes
	}

	res, err := s.runner.Generate(r.Context(), pipeline.Options{
		Text:    req.Text,
		Seed:    req.Seed,
		Date:    req.Date,
		NoDate:  req.NoDate,
		Refresh: req.Refresh,
		Config:  cfg,
		Font:    s.opts.Font,
		Logger:  s.log,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	rec := record{Key: res.Key, Title: pipeline.Title(req.Text), Config: buf.String()}
	data, _ := json.Marshal(rec)
	err = cache.RetryWithBackoff(r.Context(), func() error {
		return s.runner.Cache.Set(r.Context(), s.runner.Keyer.IDKey(id), data, cache.ProgramTTL)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	base := "/v1/programs/" + id
	writeJSON(w, http.StatusCreated, createResponse{
		ID:       id,
		Title:    rec.Title,
		Minutes:  res.Minutes,
		Seconds:  res.Seconds,
		Estimate: res.Program.Summary(),
		Lines:    len(res.Program.Lines),
		Pages:    res.Stats.Pages,
		Words:    res.Stats.Words,
		Cached:   res.Cached,
		Links: map[string]string{
			"gcode": base,
			"svg":   base + "/preview.svg",
			"png":   base + "/preview.png",
		},
	})
}

// resolve looks up the program behind the {id} URL parameter.
func (s *Server) resolve(r *http.Request) (*pipeline.Result, record, config.Config, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, record{}, config.Config{}, errors.New(errors.ErrCodeInvalidInput, "invalid program id %q", id)
	}

	ctx := r.Context()
	data, hit, err := s.runner.Cache.Get(ctx, s.runner.Keyer.IDKey(id))
	if err != nil {
		return nil, record{}, config.Config{}, err
	}
	if !hit {
		return nil, record{}, config.Config{}, errors.New(errors.ErrCodeNotFound, "program %s not found", id)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, record{}, config.Config{}, errors.Wrap(errors.ErrCodeInternal, err, "decode record %s", id)
	}
	cfg, err := config.Decode(bytes.NewReader([]byte(rec.Config)))
	if err != nil {
		return nil, record{}, config.Config{}, err
	}

	res, ok := s.runner.Load(ctx, rec.Key, pipeline.Options{Config: cfg, Logger: s.log})
	if !ok {
		return nil, record{}, config.Config{}, errors.New(errors.ErrCodeNotFound, "program %s expired", id)
	}
	return res, rec, cfg, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, rec, _, err := s.resolve(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Title+".gcode"))
	w.Header().Set("X-Estimate", res.Program.Summary())
	w.WriteHeader(http.StatusOK)
	_, _ = res.Program.WriteTo(w)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != pipeline.FormatSVG && format != pipeline.FormatPNG {
		writeError(w, http.StatusNotFound, string(errors.ErrCodeNotFound), "unknown preview format "+format)
		return
	}
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(errors.ErrCodeInvalidInput), "invalid page "+p)
			return
		}
		page = n
	}

	res, _, cfg, err := s.resolve(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := s.runner.Preview(r.Context(), res, cfg, format, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ct := "image/svg+xml"
	if format == pipeline.FormatPNG {
		ct = "image/png"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFont, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case "":
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, string(code), errors.UserMessage(err))
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic recovered", "err", rec, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), d)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", d)
	})
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/quotes"
	"github.com/Simplici0/printquote/internal/stl"
)

const (
	maxUploadBytes   = stl.MaxFileSize + 1<<20
	maxMultipartMem  = 32 << 20
	maxQuoteJSONSize = 1 << 20
)

type errorResponse struct {
	OK    bool         `json:"ok"`
	Error string       `json:"error"`
	Kind  pricing.Kind `json:"kind,omitempty"`
}

type estimateResponse struct {
	OK        bool           `json:"ok"`
	Filename  string         `json:"filename,omitempty"`
	Size      int64          `json:"size,omitempty"`
	Mesh      *meshReport    `json:"mesh,omitempty"`
	MeshError *errorResponse `json:"meshError,omitempty"`
	Estimate  pricing.Result `json:"estimate"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEstimateError reports an estimation failure with its kind. Every kind
// other than internal is the caller's to fix.
func (s *server) writeEstimateError(w http.ResponseWriter, err error) {
	kind := pricing.KindOf(err)
	status := http.StatusUnprocessableEntity
	if kind == pricing.KindInternal {
		s.logger.Error("estimate failed", zap.Error(err))
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newPricingView(s.pricing))
}

// estimateForm holds the customer's choices as submitted by the upload form.
type estimateForm struct {
	Material        pricing.Material
	UsageFactor     pricing.Measure
	WeightG         pricing.Measure
	ThroughputGPerH pricing.Measure
	PrintHours      pricing.Measure
	Copies          int
	Colors          int
}

func (f estimateForm) input() pricing.Input {
	return pricing.Input{
		Material:        f.Material,
		UsageFactor:     f.UsageFactor,
		WeightG:         f.WeightG,
		ThroughputGPerH: f.ThroughputGPerH,
		PrintHours:      f.PrintHours,
		Copies:          f.Copies,
		Colors:          f.Colors,
	}
}

func parseEstimateForm(r *http.Request) (estimateForm, error) {
	form := estimateForm{Material: pricing.PLA, Copies: 1, Colors: 1}

	if raw := strings.TrimSpace(r.FormValue("material")); raw != "" {
		m, err := pricing.ParseMaterial(raw)
		if err != nil {
			return form, err
		}
		form.Material = m
	}

	var err error
	if form.UsageFactor, err = parseOptionalFloat(r.FormValue("usage"), "usage"); err != nil {
		return form, err
	}
	if form.WeightG, err = parseOptionalFloat(r.FormValue("weight"), "weight"); err != nil {
		return form, err
	}
	if form.ThroughputGPerH, err = parseOptionalFloat(r.FormValue("throughput"), "throughput"); err != nil {
		return form, err
	}
	if form.PrintHours, err = parseOptionalFloat(r.FormValue("time"), "time"); err != nil {
		return form, err
	}
	if form.Copies, err = parseCount(r.FormValue("copies"), "copies"); err != nil {
		return form, err
	}
	if form.Colors, err = parseCount(r.FormValue("colors"), "colors"); err != nil {
		return form, err
	}
	return form, nil
}

func parseOptionalFloat(raw, field string) (pricing.Measure, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pricing.Unknown, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return pricing.Unknown, fmt.Errorf("%w: %s must be numeric", pricing.ErrInvalidParameter, field)
	}
	return pricing.Known(value), nil
}

// parseCount reads a copy or color count. Missing, zero and negative values
// count as one.
func parseCount(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", pricing.ErrInvalidParameter, field)
	}
	return max(1, value), nil
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	form, err := parseEstimateForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: pricing.KindOf(err)})
		return
	}

	resp := estimateResponse{OK: true}
	in := form.input()

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		resp.Filename = header.Filename
		resp.Size = header.Size

		mesh, meshErr := reportMesh(stl.DecodeReader(file))
		if meshErr != nil {
			if !in.WeightG.Valid {
				s.writeEstimateError(w, meshErr)
				return
			}
			resp.MeshError = &errorResponse{Error: meshErr.Error(), Kind: pricing.KindOf(meshErr)}
		} else {
			resp.Mesh = &mesh
			in.VolumeCM3 = pricing.Known(mesh.VolumeCM3)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file upload"})
		return
	}

	resp.Estimate, err = pricing.Estimate(s.pricing, in)
	if err != nil {
		s.writeEstimateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// quoteRequestPayload is what the storefront posts when a customer asks for
// a quote. Only the model's inputs are trusted, prices are recomputed. A
// print time the customer entered by hand is kept.
type quoteRequestPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
	Model struct {
		Filename  string          `json:"filename"`
		Size      int64           `json:"size"`
		Material  string          `json:"material"`
		Colors    int             `json:"colors"`
		Copies    int             `json:"copies"`
		WeightG   pricing.Measure `json:"weightG"`
		VolumeCM3 pricing.Measure `json:"volumeCm3"`
		TimeH     pricing.Measure `json:"timeH"`
	} `json:"model"`
}

type quoteCreatedResponse struct {
	OK       bool           `json:"ok"`
	ID       string         `json:"id"`
	Estimate pricing.Result `json:"estimate"`
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var payload quoteRequestPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuoteJSONSize))
	if err := dec.Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if strings.TrimSpace(payload.Model.Filename) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "model data is missing", Kind: pricing.KindInvalidParameter})
		return
	}

	estimate, err := s.quoteEstimate(payload)
	if err != nil {
		s.writeEstimateError(w, err)
		return
	}

	created, err := s.quotes.Create(r.Context(), quotes.Request{
		Name:     strings.TrimSpace(payload.Name),
		Email:    strings.TrimSpace(payload.Email),
		Phone:    strings.TrimSpace(payload.Phone),
		Notes:    strings.TrimSpace(payload.Notes),
		Filename: strings.TrimSpace(payload.Model.Filename),
		FileSize: payload.Model.Size,
		Estimate: estimate,
	})
	if err != nil {
		s.logger.Error("store quote request", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to store quote request"})
		return
	}

	s.logger.Info("quote request stored",
		zap.String("id", created.ID),
		zap.String("file", created.Filename),
		zap.String("subject", quotes.Subject(created)))
	writeJSON(w, http.StatusCreated, quoteCreatedResponse{OK: true, ID: created.ID, Estimate: created.Estimate})
}

// quoteEstimate prices a quote request. A request without weight or volume
// is still accepted, with its measures left unavailable.
func (s *server) quoteEstimate(payload quoteRequestPayload) (pricing.Result, error) {
	material := pricing.PLA
	if raw := strings.TrimSpace(payload.Model.Material); raw != "" {
		m, err := pricing.ParseMaterial(raw)
		if err != nil {
			return pricing.Result{}, err
		}
		material = m
	}

	in := pricing.Input{
		Material:   material,
		WeightG:    payload.Model.WeightG,
		VolumeCM3:  payload.Model.VolumeCM3,
		PrintHours: payload.Model.TimeH,
		Copies:     payload.Model.Copies,
		Colors:     payload.Model.Colors,
	}
	res, err := pricing.Estimate(s.pricing, in)
	if errors.Is(err, pricing.ErrUnavailable) {
		return pricing.Result{
			Material: material,
			Copies:   max(1, in.Copies),
			Colors:   max(1, in.Colors),
			Currency: s.pricing.Currency,
		}, nil
	}
	return res, err
}

type quoteListItem struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Filename  string          `json:"filename"`
	Subject   string          `json:"subject"`
	Total     pricing.Measure `json:"total"`
	Currency  string          `json:"currency"`
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	requests, err := s.quotes.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("list quote requests", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load quotes"})
		return
	}

	items := make([]quoteListItem, 0, len(requests))
	for _, q := range requests {
		items = append(items, quoteListItem{
			ID:        q.ID,
			CreatedAt: q.CreatedAt,
			Name:      q.Name,
			Email:     q.Email,
			Filename:  q.Filename,
			Subject:   quotes.Subject(q),
			Total:     q.Estimate.Total,
			Currency:  q.Estimate.Currency,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (quotes.Request, bool) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, quotes.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quote not found"})
		return quotes.Request{}, false
	}
	if err != nil {
		s.logger.Error("load quote request", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load quote"})
		return quotes.Request{}, false
	}
	return q, true
}

type quoteDetail struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Notes     string         `json:"notes"`
	Filename  string         `json:"filename"`
	FileSize  int64          `json:"fileSize"`
	Estimate  pricing.Result `json:"estimate"`
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, quoteDetail{
		ID:        q.ID,
		CreatedAt: q.CreatedAt,
		Name:      q.Name,
		Email:     q.Email,
		Phone:     q.Phone,
		Notes:     q.Notes,
		Filename:  q.Filename,
		FileSize:  q.FileSize,
		Estimate:  q.Estimate,
	})
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quotes.Text(q)))
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	valid, err := s.auth.validateCredentials(r.Context(), email, r.FormValue("password"))
	if err != nil {
		s.logger.Error("validate credentials", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "authentication error"})
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	s.auth.startSession(w, email)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.endSession(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tkaraxa/sibyl/internal/api/response"
	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/storage/report"
)

const defaultListLimit = 50

type analyzeRequest struct {
	Asset string `json:"asset"`
	Days  int    `json:"days"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Asset) == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("asset is required")))
		return
	}
	if req.Days <= 0 {
		req.Days = s.cfg.DefaultDays
	}

	rep, err := s.deps.Analyzer.Analyze(r.Context(), req.Asset, req.Days)
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, rep)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrBadRequest, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}
	if s.deps.Reports == nil {
		response.JSON(w, http.StatusOK, map[string]any{"reports": []report.Report{}, "total": 0})
		return
	}

	q := r.URL.Query()
	filter := report.ListFilter{
		Asset:  q.Get("asset"),
		Action: core.Action(strings.ToUpper(q.Get("action"))),
		Limit:  queryInt(q.Get("limit"), defaultListLimit),
		Offset: queryInt(q.Get("offset"), 0),
	}

	reports, err := s.deps.Reports.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	total, err := s.deps.Reports.Count(r.Context(), report.ListFilter{
		Asset:  filter.Asset,
		Action: filter.Action,
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	if reports == nil {
		reports = []report.Report{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"total":   total,
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.deps.Assets
	if assets == nil {
		assets = []string{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"assets": assets,
	})
}

// statusFor maps pipeline error codes onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnsupportedAsset), errors.Is(err, core.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

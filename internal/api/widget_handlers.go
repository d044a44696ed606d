package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/boxhunt/internal/errors"
	"github.com/vytor/boxhunt/internal/logger"
)

type createWidgetRequest struct {
	Variant  string          `json:"variant"`
	BoxCount json.RawMessage `json:"box_count,omitempty"`
}

type revealRequest struct {
	Index *int `json:"index"`
}

type resizeRequest struct {
	BoxCount json.RawMessage `json:"box_count"`
}

func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets := s.WidgetService.ListWidgets(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]any{"widgets": widgets})
}

func (s *Server) handleCreateWidget(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createWidgetRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	boxCount := 0
	if len(req.BoxCount) > 0 && string(req.BoxCount) != "null" {
		n, err := parseBoxCount(req.BoxCount)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if n == 0 {
			handleError(w, r, errors.NewInvalidBoxCountError(nil))
			return
		}
		boxCount = n
	}

	st, err := s.WidgetService.CreateWidget(r.Context(), req.Variant, boxCount)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("widget created: id=%s, variant=%s", st.ID, st.Variant)
	w.Header().Set("Location", "/api/widgets/"+st.ID)
	writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	st, err := s.WidgetService.GetWidget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := s.WidgetService.DeleteWidget(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Index == nil {
		handleError(w, r, errors.NewValidationError("index", "required"))
		return
	}

	resp, err := s.WidgetService.Reveal(r.Context(), chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.WidgetService.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	n, err := parseBoxCount(req.BoxCount)
	if err != nil {
		handleError(w, r, err)
		return
	}

	st, err := s.WidgetService.Resize(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleStartAutoSearch(w http.ResponseWriter, r *http.Request) {
	st, err := s.WidgetService.StartAutoSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, st)
}

func (s *Server) handleCancelAutoSearch(w http.ResponseWriter, r *http.Request) {
	cancelled, err := s.WidgetService.CancelAutoSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.WidgetService.GetStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handlePlays(w http.ResponseWriter, r *http.Request) {
	page, err := s.WidgetService.ListPlays(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

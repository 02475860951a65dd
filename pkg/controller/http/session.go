package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/usecase"
)

type openSessionRequest struct {
	AssessmentID types.AssessmentID `json:"assessmentId,omitempty"`
}

type materialityRequest struct {
	IsMaterial *bool `json:"isMaterial"`
}

type narrativeRequest struct {
	Apply bool `json:"apply"`
	Async bool `json:"async"`
}

type finalizeResponse struct {
	Session *usecase.SessionState   `json:"session"`
	Issues  []model.ValidationIssue `json:"issues"`
}

func sessionID(r *http.Request) types.SessionID {
	return types.SessionID(chi.URLParam(r, "sessionID"))
}

func topicID(r *http.Request) types.TopicID {
	return types.TopicID(chi.URLParam(r, "topicID"))
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	st, err := s.uc.Session.Open(r.Context(), req.AssessmentID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.uc.Session.Get(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Session.Close(r.Context(), sessionID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setScope(w http.ResponseWriter, r *http.Request) {
	var req usecase.ScopeInput
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	st, err := s.uc.Session.SetScope(r.Context(), sessionID(r), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.ThresholdConfiguration
	if err := s.decodeJSON(w, r, &cfg, false); err != nil {
		handleError(w, r, err)
		return
	}

	st, err := s.uc.Session.UpdateConfig(r.Context(), sessionID(r), cfg)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) setMateriality(w http.ResponseWriter, r *http.Request) {
	var req materialityRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}
	if req.IsMaterial == nil {
		handleError(w, r, goerr.Wrap(errBadRequest, "isMaterial is required"))
		return
	}

	rec, err := s.uc.Session.SetMateriality(r.Context(), sessionID(r), topicID(r), *req.IsMaterial)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) patchRecord(w http.ResponseWriter, r *http.Request) {
	var patch model.RecordPatch
	if err := s.decodeJSON(w, r, &patch, false); err != nil {
		handleError(w, r, err)
		return
	}

	rec, err := s.uc.Session.PatchRecord(r.Context(), sessionID(r), topicID(r), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// suggestNarrative requests a risk narrative. With async set the request
// returns 202 immediately and the record is updated when the text arrives.
func (s *Server) suggestNarrative(w http.ResponseWriter, r *http.Request) {
	var req narrativeRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	if req.Async {
		res, err := s.uc.Narrative.SuggestForTopicAsync(r.Context(), sessionID(r), topicID(r))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusAccepted, res)
		return
	}

	res, err := s.uc.Narrative.SuggestForTopic(r.Context(), sessionID(r), topicID(r), req.Apply)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.uc.Session.Dashboard(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.uc.Session.Save(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) finalizeSession(w http.ResponseWriter, r *http.Request) {
	st, issues, err := s.uc.Session.Finalize(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if issues == nil {
		issues = []model.ValidationIssue{}
	}
	writeJSON(w, r, http.StatusOK, finalizeResponse{Session: st, Issues: issues})
}

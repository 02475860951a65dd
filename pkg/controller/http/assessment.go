package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/service/report"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
)

type reassessmentRequest struct {
	Reason string `json:"reason"`
}

type assessmentResponse struct {
	*model.SavedAssessment
	Locked bool                    `json:"locked"`
	Issues []model.ValidationIssue `json:"issues"`
}

func assessmentID(r *http.Request) types.AssessmentID {
	return types.AssessmentID(chi.URLParam(r, "assessmentID"))
}

func reportFormat(r *http.Request) (report.Format, error) {
	f, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		return "", goerr.Wrap(errBadRequest, err.Error(), goerr.V("format", chi.URLParam(r, "format")))
	}
	return f, nil
}

func (s *Server) toResponse(a *model.SavedAssessment) assessmentResponse {
	issues := s.uc.Registry.Issues(a.Data)
	if issues == nil {
		issues = []model.ValidationIssue{}
	}
	return assessmentResponse{
		SavedAssessment: a,
		Locked:          a.IsLocked(),
		Issues:          issues,
	}
}

// listAssessments lists saved assessments, optionally filtered by the "status" query parameter
func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	var (
		list []*model.SavedAssessment
		err  error
	)
	if q := r.URL.Query().Get("status"); q != "" {
		status, perr := types.ParseAssessmentStatus(q)
		if perr != nil {
			handleError(w, r, goerr.Wrap(errBadRequest, "invalid status", goerr.V("status", q)))
			return
		}
		list, err = s.uc.Registry.ListByStatus(r.Context(), status)
	} else {
		list, err = s.uc.Registry.List(r.Context())
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	if list == nil {
		list = []*model.SavedAssessment{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"assessments": list})
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.uc.Registry.Get(r.Context(), assessmentID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.toResponse(a))
}

func (s *Server) requestReassessment(w http.ResponseWriter, r *http.Request) {
	var req reassessmentRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	a, err := s.uc.Registry.RequestReassessment(r.Context(), assessmentID(r), req.Reason)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.toResponse(a))
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request) {
	f, err := reportFormat(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	body, name, err := s.uc.Report.Render(r.Context(), assessmentID(r), f)
	if err != nil {
		handleError(w, r, err)
		return
	}

	disposition := "inline"
	if f == report.FormatPDF || r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, body)
}

func (s *Server) uploadReport(w http.ResponseWriter, r *http.Request) {
	f, err := reportFormat(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	location, err := s.uc.Report.Upload(r.Context(), assessmentID(r), f)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"location": location})
}

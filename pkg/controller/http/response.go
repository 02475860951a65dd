package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/service/report"
	"github.com/secmon-lab/materiality/pkg/usecase"
	"github.com/secmon-lab/materiality/pkg/utils/errutil"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
)

// errBadRequest marks malformed requests that never reached a use case
var errBadRequest = goerr.New("bad request")

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
// An empty body is accepted when optional is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return goerr.Wrap(errBadRequest, "invalid request body", goerr.V("cause", err.Error()))
	}
	if dec.More() {
		return goerr.Wrap(errBadRequest, "request body must contain a single JSON object")
	}
	return nil
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrAssessmentNotFound),
		errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, errBadRequest),
		errors.Is(err, usecase.ErrIndustryNotFound),
		errors.Is(err, usecase.ErrTopicNotInScope),
		errors.Is(err, usecase.ErrInvalidScope),
		errors.Is(err, model.ErrInvalidConfiguration),
		errors.Is(err, model.ErrInvalidPatch),
		errors.Is(err, model.ErrReasonRequired):
		return http.StatusBadRequest

	case errors.Is(err, model.ErrAssessmentLocked),
		errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, report.ErrUploadNotConfigured):
		return http.StatusNotImplemented

	default:
		return http.StatusInternalServerError
	}
}

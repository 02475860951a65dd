package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/usecase"
)

func (s *Server) listIndustries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"industries": s.uc.Catalog().Industries(),
	})
}

// listTopics returns the topics in scope of the industries given by repeated
// "industry" query parameters, or every topic when none is given.
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	catalog := s.uc.Catalog()
	params := r.URL.Query()["industry"]

	var topics []model.Topic
	if len(params) == 0 {
		topics = catalog.Topics()
	} else {
		codes := make([]types.IndustryCode, 0, len(params))
		for _, p := range params {
			code := types.IndustryCode(p)
			if _, ok := catalog.Industry(code); !ok {
				handleError(w, r, goerr.Wrap(usecase.ErrIndustryNotFound, "unknown industry", goerr.V(usecase.IndustryKey, code)))
				return
			}
			codes = append(codes, code)
		}
		topics = catalog.Scope(codes...)
	}

	if topics == nil {
		topics = []model.Topic{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"topics": topics})
}

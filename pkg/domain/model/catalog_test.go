package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func TestCatalog_Scope(t *testing.T) {
	catalog := model.DefaultCatalog()

	t.Run("primary and secondary industries", func(t *testing.T) {
		scope := catalog.Scope("TC-SI", "CG-AA")
		gt.A(t, scope).Length(5)

		seen := map[types.TopicID]bool{}
		for _, topic := range scope {
			gt.B(t, topic.IndustryCode == "TC-SI" || topic.IndustryCode == "CG-AA").True()
			gt.B(t, seen[topic.ID]).False()
			seen[topic.ID] = true
		}
	})

	t.Run("duplicate selection does not duplicate topics", func(t *testing.T) {
		gt.A(t, catalog.Scope("TC-SI", "TC-SI")).Length(3)
	})

	t.Run("no selection", func(t *testing.T) {
		gt.A(t, catalog.Scope()).Length(0)
	})

	t.Run("industry without topics", func(t *testing.T) {
		gt.A(t, catalog.Scope("FN-CB")).Length(0)
	})

	t.Run("returned topics are copies", func(t *testing.T) {
		scope := catalog.Scope("TC-SI")
		scope[0].AssociatedMetrics[0] = "changed"
		topic, ok := catalog.Topic(scope[0].ID)
		gt.B(t, ok).True()
		gt.S(t, topic.AssociatedMetrics[0]).Equal("TC-SI-130a.1")
	})
}

func TestNewCatalog(t *testing.T) {
	industries := []model.Industry{{Code: "TC-SI", Name: "Software", Sector: "Tech"}}

	t.Run("valid", func(t *testing.T) {
		c, err := model.NewCatalog(industries, []model.Topic{{ID: "TC-SI-001", IndustryCode: "TC-SI", Name: "Data Security"}})
		gt.NoError(t, err).Required()
		ind, ok := c.Industry("TC-SI")
		gt.B(t, ok).True()
		gt.S(t, ind.Name).Equal("Software")
	})

	tests := []struct {
		name       string
		industries []model.Industry
		topics     []model.Topic
	}{
		{
			name:       "duplicate industry",
			industries: append(industries, model.Industry{Code: "TC-SI", Name: "Again"}),
		},
		{
			name:       "invalid industry code",
			industries: []model.Industry{{Code: "tc-si", Name: "lower"}},
		},
		{
			name:       "topic with unknown industry",
			industries: industries,
			topics:     []model.Topic{{ID: "XX-001", IndustryCode: "XX-YY", Name: "Orphan"}},
		},
		{
			name:       "duplicate topic",
			industries: industries,
			topics: []model.Topic{
				{ID: "TC-SI-001", IndustryCode: "TC-SI", Name: "A"},
				{ID: "TC-SI-001", IndustryCode: "TC-SI", Name: "B"},
			},
		},
		{
			name:       "topic without name",
			industries: industries,
			topics:     []model.Topic{{ID: "TC-SI-001", IndustryCode: "TC-SI"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewCatalog(tt.industries, tt.topics)
			gt.Error(t, err)
			gt.B(t, errors.Is(err, model.ErrInvalidCatalog)).True()
		})
	}
}

package model

import (
	"slices"

	"github.com/secmon-lab/materiality/pkg/domain/types"
)

// RiskMatrix counts material topics per magnitude (outer) and likelihood (inner) level
type RiskMatrix map[types.ScoreLevel]map[types.ScoreLevel]int

// NewRiskMatrix returns a matrix with all nine cells present and zero
func NewRiskMatrix() RiskMatrix {
	m := make(RiskMatrix, 3)
	for _, mag := range types.AllScoreLevels() {
		m[mag] = make(map[types.ScoreLevel]int, 3)
		for _, like := range types.AllScoreLevels() {
			m[mag][like] = 0
		}
	}
	return m
}

// Count returns the number of topics in the cell
func (m RiskMatrix) Count(magnitude, likelihood types.ScoreLevel) int {
	return m[magnitude][likelihood]
}

// Total returns the sum of all cells
func (m RiskMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// RoadmapEntry lists the metrics to be disclosed for one material topic
type RoadmapEntry struct {
	TopicID      types.TopicID      `json:"topicId"`
	TopicName    string             `json:"topicName"`
	IndustryCode types.IndustryCode `json:"industryCode"`
	Metrics      []string           `json:"metrics"`
}

// Dashboard is the summary derived from the topics in scope and their records
type Dashboard struct {
	Total               int                          `json:"total"`
	MaterialCount       int                          `json:"materialCount"`
	OmittedCount        int                          `json:"omittedCount"`
	UndecidedCount      int                          `json:"undecidedCount"`
	CompleteCount       int                          `json:"completeCount"`
	OmissionReasons     map[types.OmissionReason]int `json:"omissionReasons"`
	HorizonDistribution map[types.ScoreLevel]int     `json:"horizonDistribution"`
	Matrix              RiskMatrix                   `json:"matrix"`
	DisclosureRoadmap   []RoadmapEntry               `json:"disclosureRoadmap"`
	MetricCount         int                          `json:"metricCount"`
}

// BuildDashboard derives the dashboard. Topics with no record, or whose
// materiality is undecided, are counted as omitted: an undecided topic is not
// yet disclosable. UndecidedCount reports them separately.
func BuildDashboard(topics []Topic, records map[types.TopicID]*AssessmentRecord) *Dashboard {
	d := &Dashboard{
		Total:               len(topics),
		OmissionReasons:     make(map[types.OmissionReason]int),
		HorizonDistribution: make(map[types.ScoreLevel]int, 3),
		Matrix:              NewRiskMatrix(),
		DisclosureRoadmap:   []RoadmapEntry{},
	}
	for _, level := range types.AllScoreLevels() {
		d.HorizonDistribution[level] = 0
	}

	for _, topic := range topics {
		rec := records[topic.ID]

		if rec != nil && rec.IsComplete() {
			d.CompleteCount++
		}

		if !rec.Material() {
			d.OmittedCount++
			if rec.Omitted() {
				if rec.OmissionReason != "" {
					d.OmissionReasons[rec.OmissionReason]++
				}
			} else {
				d.UndecidedCount++
			}
			continue
		}

		d.MaterialCount++
		d.Matrix[scoreOrLow(rec.Scores.Magnitude)][scoreOrLow(rec.Scores.Likelihood)]++
		d.HorizonDistribution[scoreOrLow(rec.Scores.Horizon)]++

		d.DisclosureRoadmap = append(d.DisclosureRoadmap, RoadmapEntry{
			TopicID:      topic.ID,
			TopicName:    topic.Name,
			IndustryCode: topic.IndustryCode,
			Metrics:      slices.Clone(topic.AssociatedMetrics),
		})
		d.MetricCount += len(topic.AssociatedMetrics)
	}

	return d
}

// scoreOrLow maps an unset or unknown level to the record default so every
// material topic lands in exactly one matrix cell
func scoreOrLow(level types.ScoreLevel) types.ScoreLevel {
	if !level.IsValid() {
		return types.ScoreLevelLow
	}
	return level
}

package model

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

// RangeThresholds splits a continuous value into Low/Medium/High buckets
type RangeThresholds struct {
	LowMax    float64 `json:"lowMax" toml:"low_max"`
	MediumMax float64 `json:"mediumMax" toml:"medium_max"`
}

// Classify maps v to Low (< LowMax), Medium (< MediumMax) or High
func (r RangeThresholds) Classify(v float64) types.ScoreLevel {
	switch {
	case v < r.LowMax:
		return types.ScoreLevelLow
	case v < r.MediumMax:
		return types.ScoreLevelMedium
	default:
		return types.ScoreLevelHigh
	}
}

func (r RangeThresholds) validate(field string) error {
	if r.LowMax <= 0 {
		return goerr.Wrap(ErrInvalidConfiguration, "low threshold must be positive",
			goerr.V(FieldKey, field), goerr.V("low_max", r.LowMax))
	}
	if r.LowMax >= r.MediumMax {
		return goerr.Wrap(ErrInvalidConfiguration, "low threshold must be below medium threshold",
			goerr.V(FieldKey, field), goerr.V("low_max", r.LowMax), goerr.V("medium_max", r.MediumMax))
	}
	return nil
}

// MagnitudeConfig configures the magnitude dimension
type MagnitudeConfig struct {
	Type        types.MagnitudeType `json:"type" toml:"type"`
	Denominator string              `json:"denominator,omitempty" toml:"denominator"`
	Thresholds  RangeThresholds     `json:"thresholds" toml:"thresholds"`
	Cap         *float64            `json:"cap,omitempty" toml:"cap"`
}

// HorizonConfig configures time horizon boundaries in years
type HorizonConfig struct {
	ShortTermYears   int  `json:"shortTermYears" toml:"short_term_years"`
	MediumTermYears  int  `json:"mediumTermYears" toml:"medium_term_years"`
	LongTermMaxYears *int `json:"longTermMaxYears,omitempty" toml:"long_term_max_years"`
}

// ThresholdConfiguration holds the boundaries used to score topics
type ThresholdConfiguration struct {
	Magnitude  MagnitudeConfig `json:"magnitude" toml:"magnitude"`
	Likelihood RangeThresholds `json:"likelihood" toml:"likelihood"`
	Horizons   HorizonConfig   `json:"horizons" toml:"horizons"`
}

// DefaultThresholdConfiguration returns the configuration a new session starts with
func DefaultThresholdConfiguration() ThresholdConfiguration {
	capValue := 15.0
	longTerm := 15
	return ThresholdConfiguration{
		Magnitude: MagnitudeConfig{
			Type:        types.MagnitudeTypeRelative,
			Denominator: "EBITDA",
			Thresholds:  RangeThresholds{LowMax: 1, MediumMax: 5},
			Cap:         &capValue,
		},
		Likelihood: RangeThresholds{LowMax: 20, MediumMax: 60},
		Horizons: HorizonConfig{
			ShortTermYears:   1,
			MediumTermYears:  5,
			LongTermMaxYears: &longTerm,
		},
	}
}

// Validate checks the ordering invariants of every dimension
func (c ThresholdConfiguration) Validate() error {
	if !c.Magnitude.Type.IsValid() {
		return goerr.Wrap(ErrInvalidConfiguration, "invalid magnitude type", goerr.V(FieldKey, "magnitude.type"), goerr.V(ValueKey, c.Magnitude.Type))
	}
	if c.Magnitude.Type == types.MagnitudeTypeRelative && c.Magnitude.Denominator == "" {
		return goerr.Wrap(ErrInvalidConfiguration, "relative magnitude requires a denominator", goerr.V(FieldKey, "magnitude.denominator"))
	}
	if err := c.Magnitude.Thresholds.validate("magnitude"); err != nil {
		return err
	}
	if c.Magnitude.Cap != nil && *c.Magnitude.Cap < c.Magnitude.Thresholds.MediumMax {
		return goerr.Wrap(ErrInvalidConfiguration, "magnitude cap must not be below medium threshold",
			goerr.V(FieldKey, "magnitude.cap"), goerr.V(ValueKey, *c.Magnitude.Cap))
	}

	if err := c.Likelihood.validate("likelihood"); err != nil {
		return err
	}
	if c.Likelihood.MediumMax > 100 {
		return goerr.Wrap(ErrInvalidConfiguration, "likelihood thresholds are percentages and must not exceed 100",
			goerr.V(FieldKey, "likelihood.mediumMax"), goerr.V(ValueKey, c.Likelihood.MediumMax))
	}

	h := c.Horizons
	if h.ShortTermYears <= 0 {
		return goerr.Wrap(ErrInvalidConfiguration, "short term horizon must be positive", goerr.V(FieldKey, "horizons.shortTermYears"))
	}
	if h.ShortTermYears >= h.MediumTermYears {
		return goerr.Wrap(ErrInvalidConfiguration, "short term horizon must be below medium term horizon",
			goerr.V("short_term_years", h.ShortTermYears), goerr.V("medium_term_years", h.MediumTermYears))
	}
	if h.LongTermMaxYears != nil && *h.LongTermMaxYears < h.MediumTermYears {
		return goerr.Wrap(ErrInvalidConfiguration, "long term maximum must not be below medium term horizon",
			goerr.V(FieldKey, "horizons.longTermMaxYears"), goerr.V(ValueKey, *h.LongTermMaxYears))
	}

	return nil
}

// ClassifyMagnitude buckets a magnitude value (currency units or percent of denominator)
func (c ThresholdConfiguration) ClassifyMagnitude(v float64) types.ScoreLevel {
	return c.Magnitude.Thresholds.Classify(v)
}

// ClassifyLikelihood buckets a likelihood percentage
func (c ThresholdConfiguration) ClassifyLikelihood(v float64) types.ScoreLevel {
	return c.Likelihood.Classify(v)
}

// ClassifyHorizon buckets the number of years until the effect is expected
func (c ThresholdConfiguration) ClassifyHorizon(years float64) types.ScoreLevel {
	return RangeThresholds{
		LowMax:    float64(c.Horizons.ShortTermYears),
		MediumMax: float64(c.Horizons.MediumTermYears),
	}.Classify(years)
}

// LevelLabels holds display labels for the three buckets of one dimension
type LevelLabels struct {
	Low    string `json:"Low"`
	Medium string `json:"Medium"`
	High   string `json:"High"`
}

// Get returns the label of level
func (l LevelLabels) Get(level types.ScoreLevel) string {
	switch level {
	case types.ScoreLevelLow:
		return l.Low
	case types.ScoreLevelMedium:
		return l.Medium
	case types.ScoreLevelHigh:
		return l.High
	default:
		return level.String()
	}
}

// ConfigurationLabels are the threshold-derived labels shown next to each score choice
type ConfigurationLabels struct {
	Magnitude  LevelLabels `json:"magnitude"`
	Likelihood LevelLabels `json:"likelihood"`
	Horizon    LevelLabels `json:"horizon"`
}

// Labels renders bucket labels from the current thresholds
func (c ThresholdConfiguration) Labels() ConfigurationLabels {
	mag := c.Magnitude.Thresholds
	fmtMag := func(v float64) string {
		if c.Magnitude.Type == types.MagnitudeTypeAbsolute {
			return "$" + humanize.Commaf(v)
		}
		return formatNumber(v) + "%"
	}
	suffix := ""
	if c.Magnitude.Type == types.MagnitudeTypeRelative && c.Magnitude.Denominator != "" {
		suffix = " of " + c.Magnitude.Denominator
	}

	lh := c.Likelihood
	h := c.Horizons

	return ConfigurationLabels{
		Magnitude: LevelLabels{
			Low:    fmt.Sprintf("Low (< %s%s)", fmtMag(mag.LowMax), suffix),
			Medium: fmt.Sprintf("Medium (%s-%s%s)", fmtMag(mag.LowMax), fmtMag(mag.MediumMax), suffix),
			High:   fmt.Sprintf("High (≥ %s%s)", fmtMag(mag.MediumMax), suffix),
		},
		Likelihood: LevelLabels{
			Low:    fmt.Sprintf("Low (< %s%%)", formatNumber(lh.LowMax)),
			Medium: fmt.Sprintf("Medium (%s%%-%s%%)", formatNumber(lh.LowMax), formatNumber(lh.MediumMax)),
			High:   fmt.Sprintf("High (≥ %s%%)", formatNumber(lh.MediumMax)),
		},
		Horizon: LevelLabels{
			Low:    fmt.Sprintf("Short (< %dy)", h.ShortTermYears),
			Medium: fmt.Sprintf("Medium (%d-%dy)", h.ShortTermYears, h.MediumTermYears),
			High:   fmt.Sprintf("Long (≥ %dy)", h.MediumTermYears),
		},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

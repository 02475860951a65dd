package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// CatalogFile is the TOML layout of a reference data file
type CatalogFile struct {
	Industries []IndustryEntry `toml:"industry"`
	Topics     []TopicEntry    `toml:"topic"`
}

// IndustryEntry is one [[industry]] table
type IndustryEntry struct {
	Code   string `toml:"code"`
	Name   string `toml:"name"`
	Sector string `toml:"sector"`
}

// TopicEntry is one [[topic]] table
type TopicEntry struct {
	ID          string   `toml:"id"`
	Industry    string   `toml:"industry"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Metrics     []string `toml:"metrics"`
}

// ToCatalog validates the file and builds the domain catalog
func (f *CatalogFile) ToCatalog() (*model.Catalog, error) {
	if len(f.Industries) == 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "at least one industry is required")
	}

	industries := make([]model.Industry, len(f.Industries))
	for i, ind := range f.Industries {
		if ind.Name == "" {
			return nil, goerr.Wrap(ErrMissingName, "industry name is required", goerr.V(IndustryKey, ind.Code), goerr.V(IndexKey, i))
		}
		industries[i] = model.Industry{
			Code:   types.IndustryCode(ind.Code),
			Name:   ind.Name,
			Sector: ind.Sector,
		}
	}

	topics := make([]model.Topic, len(f.Topics))
	for i, t := range f.Topics {
		if t.Name == "" {
			return nil, goerr.Wrap(ErrMissingName, "topic name is required", goerr.V(TopicKey, t.ID), goerr.V(IndexKey, i))
		}
		metrics := t.Metrics
		if metrics == nil {
			metrics = []string{}
		}
		topics[i] = model.Topic{
			ID:                types.TopicID(t.ID),
			IndustryCode:      types.IndustryCode(t.Industry),
			Name:              t.Name,
			Description:       t.Description,
			AssociatedMetrics: metrics,
		}
	}

	catalog, err := model.NewCatalog(industries, topics)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog")
	}
	return catalog, nil
}

// LoadCatalog reads a catalog from a TOML file
func LoadCatalog(path string) (*model.Catalog, error) {
	var file CatalogFile
	if err := decodeTOML(path, &file); err != nil {
		return nil, err
	}

	catalog, err := file.ToCatalog()
	if err != nil {
		return nil, goerr.Wrap(err, "catalog validation failed", goerr.V(ConfigPathKey, path))
	}
	return catalog, nil
}

// LoadThresholds reads a threshold configuration from a TOML file. Keys absent
// from the file keep their default values.
func LoadThresholds(path string) (model.ThresholdConfiguration, error) {
	cfg := model.DefaultThresholdConfiguration()
	if err := decodeTOML(path, &cfg); err != nil {
		return model.ThresholdConfiguration{}, err
	}

	if err := cfg.Validate(); err != nil {
		return model.ThresholdConfiguration{}, goerr.Wrap(err, "threshold validation failed", goerr.V(ConfigPathKey, path))
	}
	return cfg, nil
}

func decodeTOML(path string, v any) error {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return goerr.Wrap(ErrConfigNotFound, "file does not exist", goerr.V(ConfigPathKey, path))
		}
		return goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "failed to parse TOML", goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}
	return nil
}

// Catalog holds CLI flags for reference data and initial thresholds
type Catalog struct {
	catalogPath    string
	thresholdsPath string
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "Path to catalog TOML file (industries and topics). The built-in catalog is used if omitted",
			Category:    "Catalog",
			Sources:     cli.EnvVars("MATERIALITY_CATALOG"),
			Destination: &c.catalogPath,
		},
		&cli.StringFlag{
			Name:        "thresholds",
			Usage:       "Path to threshold TOML file used as the initial configuration of new sessions",
			Category:    "Catalog",
			Sources:     cli.EnvVars("MATERIALITY_THRESHOLDS"),
			Destination: &c.thresholdsPath,
		},
	}
}

// CatalogPath returns the configured catalog file path
func (c *Catalog) CatalogPath() string {
	return c.catalogPath
}

// ThresholdsPath returns the configured threshold file path
func (c *Catalog) ThresholdsPath() string {
	return c.thresholdsPath
}

// Configure loads the catalog, falling back to the built-in one
func (c *Catalog) Configure() (*model.Catalog, error) {
	if c.catalogPath == "" {
		return model.DefaultCatalog(), nil
	}
	return LoadCatalog(c.catalogPath)
}

// Thresholds loads the initial threshold configuration. It returns nil if no file is configured.
func (c *Catalog) Thresholds() (*model.ThresholdConfiguration, error) {
	if c.thresholdsPath == "" {
		return nil, nil
	}
	cfg, err := LoadThresholds(c.thresholdsPath)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

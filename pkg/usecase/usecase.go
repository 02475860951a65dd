package usecase

import (
	"time"

	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/service/report"
)

type UseCases struct {
	repo             interfaces.Repository
	catalog          *model.Catalog
	narrativeService interfaces.NarrativeService
	narrativeTimeout time.Duration
	dispatch         Dispatcher
	reportService    *report.Service
	thresholds       *model.ThresholdConfiguration
	now              func() time.Time

	Registry  *RegistryUseCase
	Session   *SessionUseCase
	Narrative *NarrativeUseCase
	Report    *ReportUseCase
}

type Option func(*UseCases)

func WithCatalog(catalog *model.Catalog) Option {
	return func(uc *UseCases) {
		uc.catalog = catalog
	}
}

func WithNarrativeService(svc interfaces.NarrativeService) Option {
	return func(uc *UseCases) {
		uc.narrativeService = svc
	}
}

func WithNarrativeTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.narrativeTimeout = d
	}
}

func WithDispatcher(d Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatch = d
	}
}

func WithReportService(svc *report.Service) Option {
	return func(uc *UseCases) {
		uc.reportService = svc
	}
}

// WithDefaultThresholds sets the configuration new sessions start with. It must be valid.
func WithDefaultThresholds(cfg model.ThresholdConfiguration) Option {
	return func(uc *UseCases) {
		c := cfg.Clone()
		uc.thresholds = &c
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:             repo,
		narrativeTimeout: DefaultNarrativeTimeout,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.catalog == nil {
		uc.catalog = model.DefaultCatalog()
	}
	if uc.reportService == nil {
		uc.reportService = report.New(uc.catalog)
	}

	uc.Registry = NewRegistryUseCase(repo, uc.catalog, uc.now)
	uc.Session = NewSessionUseCase(uc.catalog, uc.Registry, uc.now)
	if uc.thresholds != nil {
		uc.Session.defaults = *uc.thresholds
	}
	uc.Narrative = NewNarrativeUseCase(uc.narrativeService, uc.Session, uc.narrativeTimeout, uc.dispatch)
	uc.Report = NewReportUseCase(uc.Registry, uc.reportService)

	return uc
}

// Catalog returns the reference data in use
func (uc *UseCases) Catalog() *model.Catalog {
	return uc.catalog
}

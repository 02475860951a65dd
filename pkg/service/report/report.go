package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// ErrUploadNotConfigured is returned by Upload when no uploader is set
var ErrUploadNotConfigured = goerr.New("report upload is not configured")

// Format is the output format of a report
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat parses a report format from its file extension
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case FormatMarkdown, FormatHTML, FormatPDF:
		return f, nil
	default:
		return "", goerr.New("unsupported report format", goerr.V("format", s))
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Service renders saved assessments into shareable reports
type Service struct {
	catalog  *model.Catalog
	uploader interfaces.ReportUploader
}

// Option is a functional option for Service
type Option func(*Service)

// WithUploader enables Upload
func WithUploader(u interfaces.ReportUploader) Option {
	return func(s *Service) {
		s.uploader = u
	}
}

// New creates a report service that resolves topics against catalog
func New(catalog *model.Catalog, opts ...Option) *Service {
	s := &Service{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanUpload reports whether an uploader is configured
func (s *Service) CanUpload() bool {
	return s.uploader != nil
}

// Render renders the assessment in the given format
func (s *Service) Render(ctx context.Context, a *model.SavedAssessment, f Format) ([]byte, error) {
	logging.From(ctx).Debug("rendering report", "assessment_id", a.ID, "format", f)

	md := s.Markdown(a)
	switch f {
	case FormatMarkdown:
		return []byte(md), nil
	case FormatHTML:
		return renderHTML(a.AssessmentName, md)
	case FormatPDF:
		return renderPDF(a.AssessmentName, md)
	default:
		return nil, goerr.New("unsupported report format", goerr.V("format", f))
	}
}

// Upload renders the assessment and stores it with the configured uploader
func (s *Service) Upload(ctx context.Context, a *model.SavedAssessment, f Format) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadNotConfigured
	}

	body, err := s.Render(ctx, a, f)
	if err != nil {
		return "", err
	}

	location, err := s.uploader.Upload(ctx, FileName(a, f), f.ContentType(), bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload report", goerr.V(model.AssessmentIDKey, a.ID))
	}

	logging.From(ctx).Info("report uploaded",
		"assessment_id", a.ID,
		"format", f,
		"size", humanize.Bytes(uint64(len(body))),
		"location", location,
	)
	return location, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns a stable file name for the report, e.g. acme-fy2025-v2.pdf
func FileName(a *model.SavedAssessment, f Format) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(a.AssessmentName), "-"), "-")
	if slug == "" {
		slug = "assessment"
	}
	return fmt.Sprintf("%s-v%d.%s", slug, a.Version, f)
}

// Markdown renders the assessment summary and dashboard as Markdown
func (s *Service) Markdown(a *model.SavedAssessment) string {
	topics := s.catalog.Scope(a.Data.IndustryCodes()...)
	dash := model.BuildDashboard(topics, a.Data.Assessments)
	labels := a.Data.Config.Labels()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeText(a.AssessmentName))

	sb.WriteString("| Item | Value |\n|---|---|\n")
	if a.Timeline != nil {
		writeRow(&sb, "Reporting period", a.Timeline.Start.Format("2006-01-02")+" to "+a.Timeline.End.Format("2006-01-02"))
	} else {
		writeRow(&sb, "Reporting year", orDash(a.ReportingYear))
	}
	writeRow(&sb, "Status", string(a.Status.Normalize()))
	writeRow(&sb, "Version", fmt.Sprintf("%d", a.Version))
	writeRow(&sb, "Last modified", a.LastModified.UTC().Format("2006-01-02 15:04 MST"))
	writeRow(&sb, "Primary industry", industryName(a.Data.PrimaryIndustry))
	var secondary []string
	for _, ind := range a.Data.SecondaryIndustries {
		secondary = append(secondary, industryName(&ind))
	}
	writeRow(&sb, "Secondary industries", orDash(strings.Join(secondary, ", ")))
	sb.WriteString("\n")

	if a.ReAssessmentReason != "" {
		fmt.Fprintf(&sb, "> Re-assessment reason: %s\n\n", escapeText(a.ReAssessmentReason))
	}

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Topics in scope: %d\n", dash.Total)
	fmt.Fprintf(&sb, "- Material topics: %d\n", dash.MaterialCount)
	fmt.Fprintf(&sb, "- Omitted topics: %d (undecided: %d)\n", dash.OmittedCount, dash.UndecidedCount)
	fmt.Fprintf(&sb, "- Complete records: %d of %d\n", dash.CompleteCount, dash.Total)
	fmt.Fprintf(&sb, "- Metrics to disclose: %s\n\n", humanize.Comma(int64(dash.MetricCount)))

	sb.WriteString("## Thresholds\n\n")
	sb.WriteString("| Dimension | Low | Medium | High |\n|---|---|---|---|\n")
	writeLevelRow(&sb, "Magnitude", labels.Magnitude)
	writeLevelRow(&sb, "Likelihood", labels.Likelihood)
	writeLevelRow(&sb, "Time horizon", labels.Horizon)
	sb.WriteString("\n")

	sb.WriteString("## Risk Matrix\n\n")
	sb.WriteString("| Magnitude / Likelihood | Low | Medium | High |\n|---|---|---|---|\n")
	levels := types.AllScoreLevels()
	for i := len(levels) - 1; i >= 0; i-- {
		mag := levels[i]
		fmt.Fprintf(&sb, "| %s | %d | %d | %d |\n", mag,
			dash.Matrix.Count(mag, types.ScoreLevelLow),
			dash.Matrix.Count(mag, types.ScoreLevelMedium),
			dash.Matrix.Count(mag, types.ScoreLevelHigh))
	}
	sb.WriteString("\n")

	sb.WriteString("## Disclosure Roadmap\n\n")
	if len(dash.DisclosureRoadmap) == 0 {
		sb.WriteString("No material topics.\n\n")
	}
	for _, entry := range dash.DisclosureRoadmap {
		rec := a.Data.Assessments[entry.TopicID]
		fmt.Fprintf(&sb, "### %s (%s)\n\n", escapeText(entry.TopicName), entry.TopicID)
		if rec.RiskDescription != "" {
			fmt.Fprintf(&sb, "%s\n\n", escapeText(rec.RiskDescription))
		}
		fmt.Fprintf(&sb, "- Scores: magnitude %s, likelihood %s, horizon %s\n",
			labels.Magnitude.Get(rec.Scores.Magnitude),
			labels.Likelihood.Get(rec.Scores.Likelihood),
			labels.Horizon.Get(rec.Scores.Horizon))
		if len(rec.ValueChain) > 0 {
			stages := make([]string, 0, len(rec.ValueChain))
			for _, st := range rec.ValueChain {
				stages = append(stages, string(st))
			}
			fmt.Fprintf(&sb, "- Value chain: %s\n", strings.Join(stages, ", "))
		}
		if rec.IfrsBridge.StatementLink != "" {
			bridge := string(rec.IfrsBridge.StatementLink)
			if rec.IfrsBridge.FSLI != "" {
				bridge += " / " + escapeText(rec.IfrsBridge.FSLI)
			}
			if rec.IfrsBridge.EffectType != "" {
				bridge += " (" + string(rec.IfrsBridge.EffectType) + ")"
			}
			fmt.Fprintf(&sb, "- Financial statement: %s\n", bridge)
		}
		if len(entry.Metrics) > 0 {
			fmt.Fprintf(&sb, "- Metrics: %s\n", strings.Join(entry.Metrics, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Omitted Topics\n\n")
	if dash.OmittedCount == 0 {
		sb.WriteString("No omitted topics.\n")
		return sb.String()
	}
	sb.WriteString("| Topic | Reason | Justification |\n|---|---|---|\n")
	for _, topic := range topics {
		rec := a.Data.Assessments[topic.ID]
		if rec.Material() {
			continue
		}
		reason, justification := "Undecided", "-"
		if rec.Omitted() {
			reason = orDash(string(rec.OmissionReason))
			justification = orDash(rec.Justification)
		}
		fmt.Fprintf(&sb, "| %s (%s) | %s | %s |\n", escapeCell(topic.Name), topic.ID, escapeCell(reason), escapeCell(justification))
	}

	return sb.String()
}

func industryName(ind *model.Industry) string {
	if ind == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", ind.Name, ind.Code)
}

func writeRow(sb *strings.Builder, key, value string) {
	fmt.Fprintf(sb, "| %s | %s |\n", key, escapeCell(value))
}

func writeLevelRow(sb *strings.Builder, name string, l model.LevelLabels) {
	fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", name, escapeCell(l.Low), escapeCell(l.Medium), escapeCell(l.High))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "#", `\#`, "<", "&lt;", ">", "&gt;", "[", `\[`, "]", `\]`,
)

// escapeText keeps user input from being interpreted as Markdown syntax
func escapeText(s string) string {
	return textEscaper.Replace(strings.TrimSpace(s))
}

func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(escapeText(s), "|", `\|`)
}

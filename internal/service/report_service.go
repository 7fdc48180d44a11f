package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/export"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/storage"
)

// ReportFormat enumerates export encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type overviewSource interface {
	Overview(ctx context.Context, actor models.Actor, academicYearID string) (*models.WorkloadOverview, bool, error)
}

type reportStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportConfig tunes report generation.
type ReportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ReportResult describes a stored report and its signed download link.
type ReportResult struct {
	Path      string       `json:"-"`
	Token     string       `json:"token"`
	URL       string       `json:"url"`
	Format    ReportFormat `json:"format"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ReportService renders workload overviews and stores them behind signed URLs.
type ReportService struct {
	workloads overviewSource
	storage   reportStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	cfg       ReportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService. Nil renderers fall back to the defaults.
func NewReportService(workloads overviewSource, store reportStorage, signer *storage.SignedURLSigner, cfg ReportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{workloads: workloads, storage: store, signer: signer, csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// GenerateWorkload renders the year overview in the requested format and signs a download link.
func (s *ReportService) GenerateWorkload(ctx context.Context, actor models.Actor, academicYearID string, format ReportFormat) (*ReportResult, error) {
	overview, _, err := s.workloads.Overview(ctx, actor, academicYearID)
	if err != nil {
		return nil, err
	}
	dataset := WorkloadDataset(overview)

	var payload []byte
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	name := fmt.Sprintf("%s/workload_%s_%s.%s", actor.OrganisationID, sanitizeFilename(academicYearID), s.now().UTC().Format("20060102_150405"), format)
	rel, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(actor.OrganisationID, rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	logger.WithContext(ctx, s.logger).Info("workload report generated",
		zap.String("organisation_id", actor.OrganisationID),
		zap.String("academic_year_id", academicYearID),
		zap.String("format", string(format)),
		zap.Int("lecturers", len(overview.Lecturers)),
	)
	return &ReportResult{
		Path:      rel,
		Token:     token,
		URL:       fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:    format,
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a download token into the stored file. The token must have been issued to the
// caller's organisation.
func (s *ReportService) Open(actor models.Actor, token string) (*os.File, string, error) {
	file, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report link is invalid or expired")
	}
	if file.OwnerID != actor.OrganisationID {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report link is invalid or expired")
	}
	handle, err := s.storage.Open(file.Path)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return handle, file.Path, nil
}

// Cleanup removes stored reports older than the configured TTL.
func (s *ReportService) Cleanup() {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
}

// WorkloadDataset flattens an overview into report rows followed by per-status totals.
func WorkloadDataset(overview *models.WorkloadOverview) export.Dataset {
	data := export.Dataset{
		Title:   "Workload Overview",
		Headers: []string{"Lecturer", "Email", "Family", "Contract", "Teaching", "Admin", "Research", "Other", "Allocated", "Utilization (%)", "Status"},
		Rows:    make([][]string, 0, len(overview.Lecturers)),
	}
	for _, w := range overview.Lecturers {
		data.Rows = append(data.Rows, []string{
			w.FullName,
			w.Email,
			w.Family,
			formatHours(w.TotalContract),
			formatHours(w.TeachingHours),
			formatHours(w.AdminHours),
			formatHours(w.ResearchHours),
			formatHours(w.OtherHours),
			formatHours(w.TotalAllocated),
			formatHours(w.Utilization),
			string(w.Status),
		})
	}
	data.Summary = append(data.Summary, fmt.Sprintf("Lecturers: %d", len(overview.Lecturers)))
	for _, status := range models.CapacityStatuses {
		data.Summary = append(data.Summary, fmt.Sprintf("%s: %d", status, overview.StatusCounts[status]))
	}
	return data
}

func formatHours(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", "-")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

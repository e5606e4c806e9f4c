package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pmtctportal/internal/mail"
	"pmtctportal/internal/model"
	"pmtctportal/internal/report"
	"pmtctportal/internal/repository"
)

// Report formats accepted by the download endpoint.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var (
	// ErrBadFormat is returned for unsupported report formats.
	ErrBadFormat = errors.New("unsupported report format")
	// ErrMailDisabled is returned when emailing without an SMTP relay.
	ErrMailDisabled = errors.New("mail delivery is not configured")
)

// ReportService renders assessment reports into the spool directory and
// emails them on request. Spooled files are removed after their TTL.
type ReportService interface {
	AssessmentReport(ctx context.Context, id, format, requestedBy string) (path, filename string, err error)
	ParticipantsReport(ctx context.Context, filter repository.ParticipantFilter) (path, filename string, err error)
	EmailAssessment(ctx context.Context, id string, recipients []string, requestedBy string) error
	StartJanitor(ctx context.Context)
}

type reportService struct {
	assessments  repository.AssessmentRepo
	participants repository.ParticipantRepo
	activity     repository.ActivityRepo
	excel        *report.ExcelRenderer
	pdf          *report.PDFRenderer
	mailer       mail.Mailer
	spoolDir     string
	ttl          time.Duration
	logger       *zap.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	assessments repository.AssessmentRepo,
	participants repository.ParticipantRepo,
	activity repository.ActivityRepo,
	excel *report.ExcelRenderer,
	pdf *report.PDFRenderer,
	mailer mail.Mailer,
	spoolDir string,
	ttl time.Duration,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		assessments:  assessments,
		participants: participants,
		activity:     activity,
		excel:        excel,
		pdf:          pdf,
		mailer:       mailer,
		spoolDir:     spoolDir,
		ttl:          ttl,
		logger:       logger,
	}
}

func (s *reportService) AssessmentReport(ctx context.Context, id, format, requestedBy string) (string, string, error) {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if a == nil {
		return "", "", ErrNotFound
	}

	path, filename, err := s.render(a, format)
	if err != nil {
		return "", "", err
	}

	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: requestedBy,
		Action:   model.ActionReportDownloaded,
		Detail:   filename,
	})
	return path, filename, nil
}

func (s *reportService) render(a *model.Assessment, format string) (string, string, error) {
	stem := fmt.Sprintf("%s_%s_%s", slugify(a.FacilityName), a.AssessmentDate.Format("20060102"), a.ID)
	switch format {
	case FormatXLSX:
		filename := stem + ".xlsx"
		path := filepath.Join(s.spoolDir, filename)
		return path, filename, s.excel.Render(a, path)
	case FormatPDF:
		filename := stem + ".pdf"
		path := filepath.Join(s.spoolDir, filename)
		return path, filename, s.pdf.Render(a, path)
	default:
		return "", "", fmt.Errorf("%w: %q", ErrBadFormat, format)
	}
}

func (s *reportService) ParticipantsReport(ctx context.Context, filter repository.ParticipantFilter) (string, string, error) {
	participants, err := s.participants.List(ctx, filter)
	if err != nil {
		return "", "", err
	}

	filename := fmt.Sprintf("participants_%s_%s.xlsx", time.Now().Format("20060102"), uuid.New().String()[:8])
	path := filepath.Join(s.spoolDir, filename)
	if err := report.RenderParticipants(participants, path); err != nil {
		return "", "", err
	}
	return path, filename, nil
}

func (s *reportService) EmailAssessment(ctx context.Context, id string, recipients []string, requestedBy string) error {
	if !s.mailer.Enabled() {
		return ErrMailDisabled
	}

	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}

	path, filename, err := s.render(a, FormatXLSX)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Assessment report: %s (%s)", a.FacilityName, a.District)
	body := fmt.Sprintf(
		"Attached is the assessment report for %s, %s district.\n\nOverall score: %.1f%% (%s)\nAssessed on %s by %s.\n",
		a.FacilityName, a.District, a.OverallPct, a.Band,
		a.AssessmentDate.Format("2 January 2006"), a.AssessorName,
	)
	if err := s.mailer.Send(recipients, subject, body, path); err != nil {
		return err
	}

	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: requestedBy,
		Action:   model.ActionReportEmailed,
		Detail:   filename + " -> " + strings.Join(recipients, ", "),
	})
	return nil
}

// StartJanitor sweeps expired files out of the spool directory until the
// context is cancelled.
func (s *reportService) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *reportService) sweep() {
	entries, err := os.ReadDir(s.spoolDir)
	if err != nil {
		s.logger.Warn("spool sweep failed", zap.Error(err))
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if ext != ".xlsx" && ext != ".pdf" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.spoolDir, entry.Name())); err != nil {
			s.logger.Warn("spool file removal failed", zap.String("file", entry.Name()), zap.Error(err))
		}
	}
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	return b.String()
}

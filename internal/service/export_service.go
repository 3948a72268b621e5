package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/export"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

var gradebookHeaders = []string{"Assignment", "Due Date", "Points", "Status"}

// ExportService renders gradebook datasets as CSV or PDF.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default exporters.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ParseExportFormat validates a requested format; blank means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.WithDetails(appErrors.ErrValidation, "unsupported export format", []string{fmt.Sprintf("format %q must be csv or pdf", raw)})
	}
}

// Gradebook renders one row per assignment of a class.
func (s *ExportService) Gradebook(class models.Class, assignments []models.Assignment, format ExportFormat) (*ExportFile, error) {
	now := s.now()
	data := export.Dataset{Headers: gradebookHeaders, Rows: make([]map[string]string, 0, len(assignments))}
	for _, a := range assignments {
		data.Rows = append(data.Rows, map[string]string{
			"Assignment": a.Title,
			"Due Date":   a.DueDate.Format("2006-01-02 15:04"),
			"Points":     strconv.Itoa(a.Points),
			"Status":     dueStatusLabel(a.StatusAt(now)),
		})
	}

	var (
		payload     []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(data)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(data, class.Name+" Gradebook")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		s.logger.Error("render gradebook export", zap.Int64("class_id", class.ID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("gradebook_%s_%s.%s", sanitizeFilename(class.Name), now.Format("20060102_150405"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func dueStatusLabel(status models.DueStatus) string {
	switch status {
	case models.DueStatusOverdue:
		return "Overdue"
	case models.DueStatusDueSoon:
		return "Due Soon"
	case models.DueStatusUpcoming:
		return "Upcoming"
	default:
		return "Active"
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "class"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

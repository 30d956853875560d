package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/models"
	"github.com/noah-isme/exam-plan-api/pkg/export"
	"github.com/noah-isme/exam-plan-api/pkg/storage"
)

type exportSlotReader interface {
	ListSlots(ctx context.Context, departmentID int64, examType string) ([]models.ExamSlot, error)
}

type exportPlanReader interface {
	FetchPlacements(ctx context.Context, examID int64) ([]models.Placement, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds exam datasets and persists rendered files.
type ExportService struct {
	slots   exportSlotReader
	plans   exportPlanReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(slots exportSlotReader, plans exportPlanReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
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
	return &ExportService{
		slots:   slots,
		plans:   plans,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := sanitizeFilename(job.Params.ExamType)
	if job.Type == models.ReportTypeSeatPlan && job.Params.ExamID != nil {
		scope = strconv.FormatInt(*job.Params.ExamID, 10)
	}
	return fmt.Sprintf("%s_%s_%s.%s", string(job.Type), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeSchedule:
		return s.buildScheduleDataset(ctx, job.Params)
	case models.ReportTypeSeatPlan:
		return s.buildSeatPlanDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildScheduleDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	slots, err := s.slots.ListSlots(ctx, params.DepartmentID, params.ExamType)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Course Code", "Course Name", "Start", "Rooms"}
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, map[string]string{
			"Course Code": slot.CourseCode,
			"Course Name": slot.CourseName,
			"Start":       slot.StartAt.Format("02.01.2006 15:04"),
			"Rooms":       slot.Rooms,
		})
	}
	title := fmt.Sprintf("Exam Schedule (%s)", params.ExamType)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildSeatPlanDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.ExamID == nil {
		return export.Dataset{}, "", fmt.Errorf("examId required for seat plan export")
	}
	placements, err := s.plans.FetchPlacements(ctx, *params.ExamID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Student No", "Student Name", "Classroom", "Row", "Col"}
	rows := make([]map[string]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, map[string]string{
			"Student No":   p.Student.No,
			"Student Name": p.Student.FullName,
			"Classroom":    p.ClassroomName,
			"Row":          strconv.Itoa(p.Pos.Row + 1),
			"Col":          strconv.Itoa(p.Pos.Col + 1),
		})
	}
	title := fmt.Sprintf("Seat Plan (exam %d)", *params.ExamID)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

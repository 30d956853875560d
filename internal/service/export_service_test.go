package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-plan-api/internal/models"
	"github.com/noah-isme/exam-plan-api/pkg/export"
	"github.com/noah-isme/exam-plan-api/pkg/storage"
)

type exportSlotStub struct{}

func (exportSlotStub) ListSlots(ctx context.Context, departmentID int64, examType string) ([]models.ExamSlot, error) {
	return []models.ExamSlot{
		{CourseID: 1, CourseCode: "MATH101", CourseName: "Calculus I", StartAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), Rooms: "Hall A, Hall B"},
	}, nil
}

type exportPlanStub struct{}

func (exportPlanStub) FetchPlacements(ctx context.Context, examID int64) ([]models.Placement, error) {
	return []models.Placement{
		{Student: models.Student{No: "S1", FullName: "Ada Lovelace"}, ClassroomID: 1, ClassroomName: "Hall A", Pos: models.SeatPos{Row: 0, Col: 0}},
	}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(exportSlotStub{}, exportPlanStub{}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateScheduleCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeSchedule,
		Params: models.ReportJobParams{DepartmentID: 1, ExamType: "final", Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/api/v1/export/")
	require.Equal(t, models.ReportFormatCSV, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateSeatPlanPDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	examID := int64(11)
	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeSeatPlan,
		Params: models.ReportJobParams{DepartmentID: 1, ExamID: &examID, Format: models.ReportFormatPDF},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)
	require.Contains(t, result.RelativePath, "seat_plan_11_")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceSeatPlanRequiresExamID(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeSeatPlan,
		Params: models.ReportJobParams{DepartmentID: 1, Format: models.ReportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeSchedule,
		Params: models.ReportJobParams{DepartmentID: 1, ExamType: "final", Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	require.Equal(t, "job-4", jobID)
	require.Equal(t, result.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
	"github.com/noah-isme/sma-exam-api/pkg/jobs"
)

type stubQueue struct {
	enqueued []jobs.Job
	fail     bool
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	if q.fail {
		return errors.New("queue full")
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type stubExporter struct {
	result *ExportResult
	err    error
}

func (e *stubExporter) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return e.result, e.err
}

func (e *stubExporter) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	return "", "", time.Time{}, errors.New("not implemented")
}

func (e *stubExporter) Open(relPath string) (*os.File, error) {
	return nil, errors.New("not implemented")
}

func (e *stubExporter) Cleanup(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func TestReportServiceCreateAndProcess(t *testing.T) {
	queue := &stubQueue{}
	expires := time.Now().Add(time.Hour)
	exporter := &stubExporter{result: &ExportResult{
		RelativePath: "analysis_e1.csv",
		URL:          "/api/v1/reports/download/tok",
		Format:       models.FormatCSV,
		ExpiresAt:    expires,
	}}
	svc := NewReportService(queue, exporter, ReportServiceConfig{}, nil)

	job, err := svc.CreateJob(context.Background(), dto.CreateReportRequest{
		Type:   models.ReportAnalysis,
		Format: models.FormatCSV,
		ExamID: "e1",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobQueued, job.Status)
	require.Len(t, queue.enqueued, 1)

	err = svc.Process(context.Background(), queue.enqueued[0])
	require.NoError(t, err)

	done, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobCompleted, done.Status)
	assert.Equal(t, "/api/v1/reports/download/tok", done.DownloadURL)
	require.NotNil(t, done.ExpiresAt)
}

func TestReportServiceCreateRequiresReference(t *testing.T) {
	svc := NewReportService(&stubQueue{}, &stubExporter{}, ReportServiceConfig{}, nil)

	_, err := svc.CreateJob(context.Background(), dto.CreateReportRequest{
		Type:   models.ReportAnalysis,
		Format: models.FormatCSV,
	}, "user-1")
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), dto.CreateReportRequest{
		Type:   models.ReportSeating,
		Format: models.FormatPDF,
	}, "user-1")
	require.Error(t, err)
}

func TestReportServiceProcessFailureRecorded(t *testing.T) {
	queue := &stubQueue{}
	exporter := &stubExporter{err: errors.New("render blew up")}
	svc := NewReportService(queue, exporter, ReportServiceConfig{}, nil)

	job, err := svc.CreateJob(context.Background(), dto.CreateReportRequest{
		Type:   models.ReportSeating,
		Format: models.FormatPDF,
		PlanID: "p1",
	}, "user-1")
	require.NoError(t, err)

	err = svc.Process(context.Background(), queue.enqueued[0])
	require.Error(t, err)

	failed, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobFailed, failed.Status)
	assert.Contains(t, failed.Error, "render blew up")
}

func TestReportServiceGetUnknownJob(t *testing.T) {
	svc := NewReportService(&stubQueue{}, &stubExporter{}, ReportServiceConfig{}, nil)
	_, err := svc.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

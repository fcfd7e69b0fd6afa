package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/export"
	"github.com/noah-isme/sma-exam-api/pkg/storage"
)

type exportAnalysisBuilder interface {
	BuildReport(ctx context.Context, examID string) (*models.AnalysisReport, error)
}

type exportPlanSource interface {
	Get(ctx context.Context, id string) (*models.SeatingPlan, error)
}

type exportStudentSource interface {
	ListAll(ctx context.Context) ([]models.Student, error)
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
	RenderSeatingChart(grid export.SeatingGrid, title string) ([]byte, error)
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

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	analysis exportAnalysisBuilder
	plans    exportPlanSource
	students exportStudentSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(analysis exportAnalysisBuilder, plans exportPlanSource, students exportStudentSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		analysis: analysis,
		plans:    plans,
		students: students,
		storage:  store,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var payload []byte
	var err error
	switch {
	case job.Type == models.ReportSeating && job.Format == models.FormatPDF:
		payload, err = s.renderSeatingChart(ctx, job)
	default:
		var dataset export.Dataset
		var title string
		dataset, title, err = s.buildDataset(ctx, job)
		if err != nil {
			break
		}
		switch job.Format {
		case models.FormatCSV:
			payload, err = s.csv.Render(dataset)
		case models.FormatPDF:
			payload, err = s.pdf.Render(dataset, title)
		default:
			err = fmt.Errorf("unsupported format %s", job.Format)
		}
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
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Format,
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

// Cleanup removes files older than ttl, defaulting to the configured TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ref := job.ExamID
	if job.Type == models.ReportSeating {
		ref = job.PlanID
	}
	if ref == "" {
		ref = "na"
	}
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, ref, timestamp, job.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportAnalysis:
		return s.buildAnalysisDataset(ctx, job.ExamID)
	case models.ReportRemedial:
		return s.buildRemedialDataset(ctx, job.ExamID)
	case models.ReportSeating:
		return s.buildSeatingDataset(ctx, job.PlanID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildAnalysisDataset(ctx context.Context, examID string) (export.Dataset, string, error) {
	report, err := s.analysis.BuildReport(ctx, examID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Student", "Number"}
	for _, stat := range report.OutcomeStats {
		headers = append(headers, stat.Label)
	}
	headers = append(headers, "Total", "Percentage", "Band", "Passing")

	rows := make([]map[string]string, 0, len(report.Results))
	for _, res := range report.Results {
		row := []string{res.FullName, res.StudentNumber}
		for _, stat := range report.OutcomeStats {
			row = append(row, strconv.Itoa(res.Scores[stat.OutcomeIndex]))
		}
		row = append(row,
			strconv.Itoa(res.TotalScore),
			fmt.Sprintf("%.1f", res.Percentage),
			string(res.Label),
			passingText(res.IsPassing),
		)
		rows = append(rows, zipRow(headers, row))
	}

	title := fmt.Sprintf("Exam Analysis - %s", report.ExamName)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

// buildRemedialDataset lists, for each troubled outcome, the students who
// failed it, worst outcomes first.
func (s *ExportService) buildRemedialDataset(ctx context.Context, examID string) (export.Dataset, string, error) {
	report, err := s.analysis.BuildReport(ctx, examID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	matrixByOutcome := make(map[int]models.FailureMatrixRow, len(report.FailureMatrix))
	for _, row := range report.FailureMatrix {
		matrixByOutcome[row.OutcomeIndex] = row
	}

	headers := []string{"Outcome", "Fail Rate", "Student", "Score", "Outcome %", "Passing Overall"}
	rows := []map[string]string{}
	for _, outcome := range report.TroubledOutcomes {
		for _, entry := range matrixByOutcome[outcome.OutcomeIndex].Students {
			rows = append(rows, zipRow(headers, []string{
				outcome.Label,
				fmt.Sprintf("%.1f%%", outcome.FailRate),
				entry.FullName,
				fmt.Sprintf("%d/%d", entry.Score, entry.MaxScore),
				fmt.Sprintf("%.1f%%", entry.PercentageOfOutcome),
				passingText(entry.IsPassingOverall),
			}))
		}
	}

	title := fmt.Sprintf("Remedial Plan - %s", report.ExamName)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildSeatingDataset(ctx context.Context, planID string) (export.Dataset, string, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	names, err := s.studentNames(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Seat", "Row", "Col", "Front", "Student"}
	rows := []map[string]string{}
	for _, seat := range BuildSeats(plan.Layout) {
		name := ""
		if studentID, ok := plan.Assignments[seat.ID]; ok {
			name = names[studentID]
		}
		rows = append(rows, zipRow(headers, []string{
			seat.ID,
			strconv.Itoa(seat.Row),
			strconv.Itoa(seat.Col),
			boolText(seat.IsFront),
			name,
		}))
	}

	title := fmt.Sprintf("Seating Plan - %s", plan.Name)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

// renderSeatingChart draws the classroom grid instead of a flat table.
func (s *ExportService) renderSeatingChart(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	plan, err := s.plans.Get(ctx, job.PlanID)
	if err != nil {
		return nil, err
	}
	names, err := s.studentNames(ctx)
	if err != nil {
		return nil, err
	}

	cells := make([][]string, plan.Layout.Rows)
	for row := 1; row <= plan.Layout.Rows; row++ {
		cells[row-1] = make([]string, plan.Layout.Cols)
		for col := 1; col <= plan.Layout.Cols; col++ {
			base := fmt.Sprintf("R%d-C%d", row, col)
			if plan.Layout.DeskType == models.DeskDouble {
				left := names[plan.Assignments[base+"-L"]]
				right := names[plan.Assignments[base+"-R"]]
				cells[row-1][col-1] = deskLabel(left, right)
			} else {
				cells[row-1][col-1] = names[plan.Assignments[base]]
			}
		}
	}

	grid := export.SeatingGrid{
		Rows:          plan.Layout.Rows,
		Cols:          plan.Layout.Cols,
		FrontRowDepth: plan.Layout.FrontRowDepth,
		Cells:         cells,
	}
	return s.pdf.RenderSeatingChart(grid, fmt.Sprintf("Seating Plan - %s", plan.Name))
}

func (s *ExportService) studentNames(ctx context.Context) (map[string]string, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.FullName
	}
	return names, nil
}

func deskLabel(left, right string) string {
	switch {
	case left == "" && right == "":
		return ""
	case right == "":
		return left
	case left == "":
		return right
	default:
		return left + " / " + right
	}
}

// zipRow pairs positional values with their column headers.
func zipRow(headers, values []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(values) {
			row[header] = values[i]
		}
	}
	return row
}

func passingText(passing bool) string {
	if passing {
		return "Yes"
	}
	return "No"
}

func boolText(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

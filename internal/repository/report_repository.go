package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

// ReportRepository stores report snapshots for history and audit.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a snapshot.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO reports (id, report_type, student_id, course_id, period, data, created_by, created_at)
VALUES (:id, :report_type, :student_id, :course_id, :period, :data, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// ListByStudent returns snapshots visible to scope, newest first. An empty studentID lists every
// visible snapshot. Snapshots without a student are visible only to unrestricted scopes.
func (r *ReportRepository) ListByStudent(ctx context.Context, scope access.Scope, studentID string, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	where := []string{"1=1"}
	clause, args := scopeStudents(scope, "s", nil)
	if clause != "" {
		where = append(where, clause)
	}
	if studentID != "" {
		args = append(args, studentID)
		where = append(where, fmt.Sprintf("r.student_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT r.id, r.report_type, r.student_id, r.course_id, r.period, r.data, r.created_by, r.created_at
	FROM reports r LEFT JOIN students s ON s.id = r.student_id
	WHERE %s ORDER BY r.created_at DESC LIMIT %d`, strings.Join(where, " AND "), limit)
	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

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

// BehaviorRepository manages behaviour notes.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs the repository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// Create inserts a behaviour note.
func (r *BehaviorRepository) Create(ctx context.Context, record *models.BehaviorRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO behavior_records (id, student_id, course_id, behavior_type, description, rating, record_date, created_by, created_at)
VALUES (:id, :student_id, :course_id, :behavior_type, :description, :rating, :record_date, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create behavior record: %w", err)
	}
	return nil
}

// List returns notes visible to scope, newest first.
func (r *BehaviorRepository) List(ctx context.Context, scope access.Scope, filter models.BehaviorFilter) ([]models.BehaviorRecord, error) {
	where := []string{"1=1"}
	var args []interface{}
	clause, args := scopeStudents(scope, "s", args)
	if clause != "" {
		where = append(where, clause)
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("b.student_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where = append(where, fmt.Sprintf("b.course_id = $%d", len(args)))
	}
	if filter.BehaviorType != "" {
		args = append(args, filter.BehaviorType)
		where = append(where, fmt.Sprintf("b.behavior_type = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("b.record_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("b.record_date <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT b.id, b.student_id, b.course_id, b.behavior_type, b.description, b.rating, b.record_date, b.created_by, b.created_at
	FROM behavior_records b JOIN students s ON s.id = b.student_id
	WHERE %s ORDER BY b.record_date DESC, b.created_at DESC`, strings.Join(where, " AND "))
	var records []models.BehaviorRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list behavior records: %w", err)
	}
	return records, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
)

const groupSelect = `SELECT g.id, g.name, g.course_year, g.active, g.created_at, g.updated_at,
	(SELECT COUNT(*) FROM students s WHERE s.group_id = g.id AND s.status = 'active') AS student_count
	FROM groups g`

// GroupRepository manages student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns the groups visible to scope.
func (r *GroupRepository) List(ctx context.Context, scope access.Scope, filter models.GroupFilter) ([]models.Group, error) {
	conditions, args := groupConditions(scope, filter)
	query := groupSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY g.course_year, g.name"

	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Count returns the number of groups visible to scope.
func (r *GroupRepository) Count(ctx context.Context, scope access.Scope, filter models.GroupFilter) (int, error) {
	conditions, args := groupConditions(scope, filter)
	query := `SELECT COUNT(*) FROM groups g`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return total, nil
}

// CountByYear returns active group counts keyed by course year.
func (r *GroupRepository) CountByYear(ctx context.Context) (map[int]int, error) {
	var rows []struct {
		CourseYear int `db:"course_year"`
		Total      int `db:"total"`
	}
	const query = `SELECT course_year, COUNT(*) AS total FROM groups WHERE active = TRUE GROUP BY course_year ORDER BY course_year`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count groups by year: %w", err)
	}
	result := map[int]int{1: 0, 2: 0, 3: 0, 4: 0}
	for _, row := range rows {
		result[row.CourseYear] = row.Total
	}
	return result, nil
}

// FindByID returns a group by id.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, groupSelect+` WHERE g.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.Active = true
	const query = `INSERT INTO groups (id, name, course_year, active, created_at, updated_at) VALUES (:id, :name, :course_year, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func groupConditions(scope access.Scope, filter models.GroupFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	clause, args := scopeGroups(scope, "g", args)
	if clause != "" {
		conditions = append(conditions, clause)
	}
	if filter.CourseYear > 0 {
		args = append(args, filter.CourseYear)
		conditions = append(conditions, fmt.Sprintf("g.course_year = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("g.active = $%d", len(args)))
	}
	return conditions, args
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-crm-api/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, active, last_login, created_at, updated_at`

var userSorts = map[string]string{
	"email":      "email",
	"created_at": "created_at",
	"last_name":  "last_name",
	"role":       "role",
}

// UserRepository stores login accounts and the audit trail written on their behalf.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail matches case-insensitively. sql.ErrNoRows is returned unwrapped.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", `LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", `id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, by, predicate string, value string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+predicate+` LIMIT 1`, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, sql.ErrNoRows
	case err != nil:
		return nil, fmt.Errorf("find user by %s: %w", by, err)
	}
	return &user, nil
}

// CountByRole is used by the bootstrap step and dashboards.
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, fmt.Errorf("count %s users: %w", role, err)
	}
	return total, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return r.touch(ctx, "last_login", id, ts, ts)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return r.touch(ctx, "password_hash", id, passwordHash, updatedAt)
}

// touch sets a single column together with updated_at.
func (r *UserRepository) touch(ctx context.Context, column, id string, value interface{}, updatedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, id, value, updatedAt); err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}
	return nil
}

// List pages through accounts and reports the unpaged total.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where, args := userWhere(filter)

	column, ok := userSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}
	_, limit, offset := normalizePage(filter.Page, filter.PageSize)

	users := []models.User{}
	listQuery := fmt.Sprintf("SELECT %s FROM users %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, where, column, direction, limit, offset)
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func userWhere(filter models.UserFilter) (string, []interface{}) {
	clause := "WHERE 1=1"
	var args []interface{}
	add := func(expr string, value interface{}) {
		args = append(args, value)
		clause += " AND " + strings.ReplaceAll(expr, "?", fmt.Sprintf("$%d", len(args)))
	}
	if filter.Role != nil {
		add("role = ?", *filter.Role)
	}
	if filter.Active != nil {
		add("active = ?", *filter.Active)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		add("(LOWER(email) LIKE ? OR LOWER(first_name || ' ' || last_name) LIKE ?)", "%"+strings.ToLower(term)+"%")
	}
	return clause, args
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return insertUser(ctx, r.db, user)
}

// CreateAuditLog fills in the id and timestamp when the caller left them blank.
func (r *UserRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at)
VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("write audit entry %s %s: %w", entry.Action, entry.Resource, err)
	}
	return nil
}

// insertUser is shared with the student and teacher repositories so profile rows can be
// created in the same transaction as their account.
func insertUser(ctx context.Context, ext sqlx.ExtContext, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, first_name, last_name, role, active, created_at, updated_at)
VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, user); err != nil {
		return fmt.Errorf("insert user %s: %w", user.Email, err)
	}
	return nil
}

package access

import (
	"time"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/config"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

// RecordKind selects the edit window column.
type RecordKind int

const (
	KindAttendance RecordKind = iota
	KindGrade
)

func (k RecordKind) String() string {
	if k == KindAttendance {
		return "attendance"
	}
	return "grade"
}

// Decision is the outcome of an edit-window check.
type Decision int

const (
	Allowed Decision = iota
	DeniedRole
	DeniedWindow
)

// Reason is a stable machine-readable label used in bulk save reports.
func (d Decision) Reason() string {
	switch d {
	case Allowed:
		return ""
	case DeniedRole:
		return appErrors.ErrForbidden.Code
	case DeniedWindow:
		return appErrors.ErrEditWindowClosed.Code
	}
	return appErrors.ErrForbidden.Code
}

// Err converts a decision into the matching typed error, nil when allowed.
func (d Decision) Err(kind RecordKind) error {
	switch d {
	case Allowed:
		return nil
	case DeniedWindow:
		return appErrors.Clone(appErrors.ErrEditWindowClosed, kind.String()+" edit window closed")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role not permitted to edit "+kind.String())
	}
}

const unlimited time.Duration = -1

// EditPolicy decides whether an existing attendance or grade row may still be modified.
type EditPolicy struct {
	TeacherAttendance time.Duration
	TeacherGrades     time.Duration
	ViceDean          time.Duration
}

// NewEditPolicy converts configured day counts into durations.
func NewEditPolicy(cfg config.EditWindowConfig) EditPolicy {
	day := 24 * time.Hour
	return EditPolicy{
		TeacherAttendance: time.Duration(cfg.TeacherAttendanceDays) * day,
		TeacherGrades:     time.Duration(cfg.TeacherGradesDays) * day,
		ViceDean:          time.Duration(cfg.ViceDeanDays) * day,
	}
}

// Check evaluates the window against now. The boundary is inclusive.
func (p EditPolicy) Check(kind RecordKind, role models.UserRole, createdAt, now time.Time) Decision {
	window, ok := p.window(kind, role)
	if !ok {
		return DeniedRole
	}
	if window == unlimited {
		return Allowed
	}
	if now.Sub(createdAt) <= window {
		return Allowed
	}
	return DeniedWindow
}

func (p EditPolicy) window(kind RecordKind, role models.UserRole) (time.Duration, bool) {
	switch role {
	case models.RoleDean:
		return unlimited, true
	case models.RoleViceDean:
		return p.ViceDean, true
	case models.RoleTeacher:
		if kind == KindAttendance {
			return p.TeacherAttendance, true
		}
		return p.TeacherGrades, true
	case models.RoleStudent, models.RoleParent:
		return 0, false
	}
	return 0, false
}

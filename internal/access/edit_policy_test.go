package access

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/config"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

var defaultPolicy = NewEditPolicy(config.EditWindowConfig{
	TeacherAttendanceDays: 1,
	TeacherGradesDays:     7,
	ViceDeanDays:          30,
})

func TestTeacherAttendanceBoundaryInclusive(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, Allowed, defaultPolicy.Check(KindAttendance, models.RoleTeacher, now.Add(-24*time.Hour), now))
	assert.Equal(t, DeniedWindow, defaultPolicy.Check(KindAttendance, models.RoleTeacher, now.Add(-24*time.Hour-time.Second), now))
}

func TestWindowsPerRole(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	cases := []struct {
		name    string
		kind    RecordKind
		role    models.UserRole
		elapsed time.Duration
		want    Decision
	}{
		{"teacher grade at 7d", KindGrade, models.RoleTeacher, 7 * day, Allowed},
		{"teacher grade past 7d", KindGrade, models.RoleTeacher, 7*day + time.Second, DeniedWindow},
		{"teacher attendance at 2d", KindAttendance, models.RoleTeacher, 2 * day, DeniedWindow},
		{"vice dean attendance at 30d", KindAttendance, models.RoleViceDean, 30 * day, Allowed},
		{"vice dean grade past 30d", KindGrade, models.RoleViceDean, 30*day + time.Second, DeniedWindow},
		{"dean years later", KindGrade, models.RoleDean, 3 * 365 * day, Allowed},
		{"student fresh row", KindAttendance, models.RoleStudent, 0, DeniedRole},
		{"parent fresh row", KindGrade, models.RoleParent, 0, DeniedRole},
		{"unknown role", KindGrade, models.UserRole("admin"), 0, DeniedRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, defaultPolicy.Check(tc.kind, tc.role, now.Add(-tc.elapsed), now))
		})
	}
}

func TestWindowMonotonic(t *testing.T) {
	now := time.Now()
	closed := false
	for hours := 0; hours <= 24*40; hours++ {
		d := defaultPolicy.Check(KindGrade, models.RoleViceDean, now.Add(-time.Duration(hours)*time.Hour), now)
		if closed {
			assert.Equal(t, DeniedWindow, d, "reopened after %d hours", hours)
		}
		if d == DeniedWindow {
			closed = true
		}
	}
	assert.True(t, closed)
}

func TestDecisionErrors(t *testing.T) {
	assert.NoError(t, Allowed.Err(KindGrade))
	assert.True(t, errors.Is(DeniedWindow.Err(KindGrade), appErrors.ErrEditWindowClosed))
	assert.True(t, errors.Is(DeniedRole.Err(KindGrade), appErrors.ErrForbidden))
	assert.NotEqual(t, DeniedRole.Reason(), DeniedWindow.Reason())
}

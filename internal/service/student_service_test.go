package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/export"
)

// duplicateOnSecond fails the second Create with a unique violation.
type duplicateOnSecond struct {
	*fakeStudents
	calls int
}

func (d *duplicateOnSecond) Create(ctx context.Context, user *models.User, student *models.Student) error {
	d.calls++
	if d.calls == 2 {
		return &pq.Error{Code: "23505"}
	}
	return d.fakeStudents.Create(ctx, user, student)
}

func TestStudentServiceSearchClampsLimit(t *testing.T) {
	repo := defaultStudents()
	svc := NewStudentService(repo, defaultGroups(), nil, zap.NewNop())

	for _, tc := range []struct{ in, want int }{{0, 20}, {-5, 20}, {50, 50}, {500, 100}} {
		students, err := svc.Search(context.Background(), deanScope, models.StudentFilter{Search: "ali"}, tc.in)
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Equal(t, tc.want, repo.lastLimit)
	}
}

func TestStudentServiceGetScope(t *testing.T) {
	svc := NewStudentService(defaultStudents(), defaultGroups(), nil, nil)

	student, err := svc.Get(context.Background(), parentScope, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "S-001", student.StudentCode)

	_, err = svc.Get(context.Background(), teacherScope, "student-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), deanScope, "student-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreate(t *testing.T) {
	repo := defaultStudents()
	svc := NewStudentService(repo, defaultGroups(), nil, nil)
	req := models.CreateStudentRequest{
		Email: " New@University.tj", Password: "secret1", FirstName: "Nodir", StudentCode: "S-100",
		GroupID: "group-1", EnrollmentDate: "2023-09-01",
	}

	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "student-new", student.ID)
	assert.Equal(t, models.StudentActive, student.Status)
	assert.Equal(t, "2023-09-01", student.EnrollmentDate.Format(dateLayout))
	require.Len(t, repo.created, 1)
	assert.Equal(t, "new@university.tj", repo.created[0].Email)
	assert.Equal(t, models.RoleStudent, repo.created[0].Role)

	missingGroup := req
	missingGroup.GroupID = "group-9"
	_, err = svc.Create(context.Background(), missingGroup)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	repo.createErr = &pq.Error{Code: "23505"}
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateAndDelete(t *testing.T) {
	repo := defaultStudents()
	svc := NewStudentService(repo, defaultGroups(), nil, nil)

	updated, err := svc.Update(context.Background(), "student-1", models.UpdateStudentRequest{
		GroupID:  ptr("group-2"),
		ParentID: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "group-2", updated.GroupID)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "Ali", repo.updated.FirstName)

	require.NoError(t, svc.Delete(context.Background(), "student-1"))
	assert.Equal(t, models.StudentInactive, repo.status)

	repo.statusErr = sql.ErrNoRows
	err = svc.Delete(context.Background(), "student-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceImport(t *testing.T) {
	sheet, err := export.NewXLSXExporter().Render(export.Dataset{
		Headers: []string{"Email", "First_Name", "Last_Name", "Student_Code", "Password"},
		Rows: []map[string]string{
			{"Email": "a@university.tj", "First_Name": "Aziz", "Student_Code": "S-201", "Password": "secret1"},
			{"Email": "b@university.tj", "First_Name": "Bahor", "Student_Code": "S-202", "Password": "secret1"},
			{"Email": "not-an-email", "First_Name": "Cyrus", "Student_Code": "S-203", "Password": "secret1"},
			{"Email": "d@university.tj", "First_Name": "Dilya", "Student_Code": "S-204", "Password": "secret1"},
		},
	})
	require.NoError(t, err)

	repo := &duplicateOnSecond{fakeStudents: defaultStudents()}
	svc := NewStudentService(repo, defaultGroups(), nil, nil)

	result, err := svc.Import(context.Background(), "group-1", bytes.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, []models.ImportRowError{
		{Row: 3, Reason: "duplicate email or student code"},
		{Row: 4, Reason: "incomplete data"},
	}, result.Skipped)
}

func TestStudentServiceImportRejectsGarbage(t *testing.T) {
	svc := NewStudentService(defaultStudents(), defaultGroups(), nil, nil)

	_, err := svc.Import(context.Background(), "group-1", strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Import(context.Background(), "", strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceImportSkipsOverlongPasswords(t *testing.T) {
	sheet, err := export.NewXLSXExporter().Render(export.Dataset{
		Headers: []string{"email", "first_name", "student_code", "password"},
		Rows: []map[string]string{
			{"email": "a@university.tj", "first_name": "Aziz", "student_code": "S-301", "password": "secret1"},
			{"email": "b@university.tj", "first_name": "Bahor", "student_code": "S-302", "password": strings.Repeat("п", 40)},
			{"email": "c@university.tj", "first_name": "Cyrus", "student_code": "S-303", "password": strings.Repeat("x", 80)},
		},
	})
	require.NoError(t, err)

	repo := defaultStudents()
	svc := NewStudentService(repo, defaultGroups(), nil, nil)

	result, err := svc.Import(context.Background(), "group-1", bytes.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 3, result.Skipped[0].Row)
	assert.Equal(t, "password must not exceed 72 bytes", result.Skipped[0].Reason)
	assert.Equal(t, 4, result.Skipped[1].Row)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "a@university.tj", repo.created[0].Email)
}

func TestStudentServiceCreateRejectsOverlongPassword(t *testing.T) {
	svc := NewStudentService(defaultStudents(), defaultGroups(), nil, nil)
	req := models.CreateStudentRequest{
		Email: "long@university.tj", FirstName: "Long", StudentCode: "S-400", GroupID: "group-1",
	}

	for _, password := range []string{strings.Repeat("x", 80), strings.Repeat("п", 40)} {
		req.Password = password
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/repository"
)

var (
	deanScope     = access.Scope{Role: models.RoleDean, UserID: "dean-1"}
	viceDeanScope = access.Scope{Role: models.RoleViceDean, UserID: "vice-1"}
	teacherScope  = access.Scope{Role: models.RoleTeacher, UserID: "user-t", TeacherID: "teacher-1", GroupIDs: []string{"group-1"}}
	otherTeacher  = access.Scope{Role: models.RoleTeacher, UserID: "user-x", TeacherID: "teacher-2", GroupIDs: []string{"group-2"}}
	studentScope  = access.Scope{Role: models.RoleStudent, UserID: "user-s", StudentID: "student-1", GroupIDs: []string{"group-1"}}
	parentScope   = access.Scope{Role: models.RoleParent, UserID: "parent-1", ChildIDs: []string{"student-1"}, GroupIDs: []string{"group-1"}}
)

func ptr[T any](v T) *T { return &v }

type fakeCourses struct {
	courses   map[string]*models.Course
	roster    []models.RosterRow
	active    []models.Course
	findErr   error
	created   *models.Course
	createErr error
}

func (f *fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (f *fakeCourses) List(ctx context.Context, scope access.Scope, filter models.CourseFilter) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		if scope.CanAccessCourse(c) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourses) Create(ctx context.Context, course *models.Course) error {
	if f.createErr != nil {
		return f.createErr
	}
	course.ID = "course-new"
	f.created = course
	if f.courses == nil {
		f.courses = map[string]*models.Course{}
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourses) Roster(ctx context.Context, course *models.Course, date time.Time) ([]models.RosterRow, error) {
	return f.roster, nil
}

func (f *fakeCourses) ActiveByGroup(ctx context.Context, groupID string) ([]models.Course, error) {
	return f.active, nil
}

func defaultCourses() *fakeCourses {
	return &fakeCourses{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1", GroupID: "group-1", SubjectName: "Algebra", Credits: 3, Active: true},
		"course-2": {ID: "course-2", TeacherID: "teacher-2", GroupID: "group-2", SubjectName: "Physics", Credits: 4, Active: true},
	}}
}

type fakeStudents struct {
	students  map[string]*models.Student
	created   []*models.User
	createErr error
	updated   *models.Student
	statusErr error
	status    models.StudentStatus
	lastLimit int
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStudents) List(ctx context.Context, scope access.Scope, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range f.students {
		if scope.CanAccessStudent(s) {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (f *fakeStudents) Search(ctx context.Context, scope access.Scope, filter models.StudentFilter, limit int) ([]models.Student, error) {
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeStudents) Create(ctx context.Context, user *models.User, student *models.Student) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, user)
	student.ID = "student-new"
	student.UserID = "user-new"
	return nil
}

func (f *fakeStudents) Update(ctx context.Context, student *models.Student) error {
	f.updated = student
	return nil
}

func (f *fakeStudents) SetStatus(ctx context.Context, id string, status models.StudentStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.status = status
	return nil
}

func (f *fakeStudents) ListActiveByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		if s.GroupID == groupID && s.Status == models.StudentActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStudents) Count(ctx context.Context, scope access.Scope, filter models.StudentFilter) (int, error) {
	n := 0
	for _, s := range f.students {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if scope.CanAccessStudent(s) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStudents) ChildrenOf(ctx context.Context, parentUserID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		if s.ParentID != nil && *s.ParentID == parentUserID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func defaultStudents() *fakeStudents {
	return &fakeStudents{students: map[string]*models.Student{
		"student-1": {ID: "student-1", StudentCode: "S-001", FirstName: "Ali", LastName: "Karimov", GroupID: "group-1", GroupName: "CS-21", CourseYear: 2, ParentID: ptr("parent-1"), Status: models.StudentActive},
		"student-2": {ID: "student-2", StudentCode: "S-002", FirstName: "Lola", GroupID: "group-2", GroupName: "CS-22", CourseYear: 1, Status: models.StudentActive},
	}}
}

type fakeGroups struct {
	groups map[string]*models.Group
}

func (f *fakeGroups) FindByID(ctx context.Context, id string) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *g
	return &copy, nil
}

func (f *fakeGroups) Count(ctx context.Context, scope access.Scope, filter models.GroupFilter) (int, error) {
	n := 0
	for id := range f.groups {
		if scope.CanAccessGroup(id) {
			n++
		}
	}
	return n, nil
}

func (f *fakeGroups) CountByYear(ctx context.Context) (map[int]int, error) {
	out := map[int]int{1: 0, 2: 0, 3: 0, 4: 0}
	for _, g := range f.groups {
		out[g.CourseYear]++
	}
	return out, nil
}

func defaultGroups() *fakeGroups {
	return &fakeGroups{groups: map[string]*models.Group{
		"group-1": {ID: "group-1", Name: "CS-21", CourseYear: 2, Active: true},
		"group-2": {ID: "group-2", Name: "CS-22", CourseYear: 1, Active: true},
	}}
}

// fakeAttendance applies the edit check to rows present in existing, keyed by student id.
type fakeAttendance struct {
	existing  map[string]time.Time
	rows      map[string]*models.Attendance
	bulkItems []models.BulkAttendanceItem
	createdBy string
	tally     models.AttendanceTally
	filters   []models.AttendanceFilter
	summary   []models.AttendanceSummaryRow
	teacherID string
	perCourse []models.CourseTallyRow
}

func (f *fakeAttendance) List(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) ([]models.Attendance, error) {
	f.filters = append(f.filters, filter)
	return nil, nil
}

func (f *fakeAttendance) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *row
	return &copy, nil
}

func (f *fakeAttendance) BulkUpsert(ctx context.Context, courseID string, date time.Time, items []models.BulkAttendanceItem, createdBy string, check repository.EditCheck) (*models.BulkSaveResult, error) {
	f.bulkItems = items
	f.createdBy = createdBy
	result := &models.BulkSaveResult{Skipped: []models.SkippedRecord{}}
	for _, item := range items {
		if createdAt, ok := f.existing[item.StudentID]; ok {
			if err := check(createdAt); err != nil {
				result.Skipped = append(result.Skipped, models.SkippedRecord{StudentID: item.StudentID, Reason: "EDIT_WINDOW_CLOSED"})
				continue
			}
		}
		result.SavedCount++
	}
	return result, nil
}

func (f *fakeAttendance) Update(ctx context.Context, id string, req models.UpdateAttendanceRequest, check repository.EditCheck) (*models.Attendance, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if err := check(row.CreatedAt); err != nil {
		return nil, err
	}
	row.Status = req.Status
	return row, nil
}

func (f *fakeAttendance) Tally(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) (models.AttendanceTally, error) {
	f.filters = append(f.filters, filter)
	return f.tally, nil
}

func (f *fakeAttendance) SummaryByGroup(ctx context.Context, groupID string, from, to time.Time, teacherID string) ([]models.AttendanceSummaryRow, error) {
	f.teacherID = teacherID
	return f.summary, nil
}

func (f *fakeAttendance) TallyByCourse(ctx context.Context, studentID string) ([]models.CourseTallyRow, error) {
	return f.perCourse, nil
}

type fakeGrades struct {
	existing map[models.GradeType]time.Time
	saved    *models.Grade
	rows     []models.CourseGradeRow
}

func (f *fakeGrades) Save(ctx context.Context, grade *models.Grade, check repository.EditCheck) (bool, error) {
	if createdAt, ok := f.existing[grade.GradeType]; ok {
		if err := check(createdAt); err != nil {
			return false, err
		}
		f.saved = grade
		return false, nil
	}
	f.saved = grade
	return true, nil
}

func (f *fakeGrades) List(ctx context.Context, scope access.Scope, filter models.GradeFilter) ([]models.Grade, error) {
	return nil, nil
}

func (f *fakeGrades) ByStudent(ctx context.Context, studentID string) ([]models.CourseGradeRow, error) {
	return f.rows, nil
}

type fakeRatings struct {
	saved *models.Rating
}

func (f *fakeRatings) Save(ctx context.Context, rating *models.Rating, check repository.EditCheck) (bool, error) {
	f.saved = rating
	return true, nil
}

type fakeDenylist struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Duration{}
	}
	f.revoked[tokenID] = ttl
	return nil
}

func (f *fakeDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

func testPolicy() access.EditPolicy {
	day := 24 * time.Hour
	return access.EditPolicy{TeacherAttendance: day, TeacherGrades: 7 * day, ViceDean: 30 * day}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

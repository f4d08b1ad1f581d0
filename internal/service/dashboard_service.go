package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/grading"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/config"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

type dashboardStudentRepository interface {
	Count(ctx context.Context, scope access.Scope, filter models.StudentFilter) (int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ChildrenOf(ctx context.Context, parentUserID string) ([]models.Student, error)
}

type dashboardGroupRepository interface {
	Count(ctx context.Context, scope access.Scope, filter models.GroupFilter) (int, error)
	CountByYear(ctx context.Context) (map[int]int, error)
}

type dashboardCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardSubjectRepository interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardCourseRepository interface {
	Count(ctx context.Context, scope access.Scope, filter models.CourseFilter) (int, error)
}

type attendanceTallier interface {
	Tally(ctx context.Context, scope access.Scope, filter models.AttendanceFilter) (models.AttendanceTally, error)
}

// DashboardRepositories groups the read models the dashboard aggregates.
type DashboardRepositories struct {
	Students   dashboardStudentRepository
	Groups     dashboardGroupRepository
	Teachers   dashboardCounter
	Subjects   dashboardSubjectRepository
	Courses    dashboardCourseRepository
	Attendance attendanceTallier
}

// DashboardService computes the role specific statistics page. Nothing is cached.
type DashboardService struct {
	repos  DashboardRepositories
	config config.DashboardConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repos DashboardRepositories, cfg config.DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repos: repos, config: cfg, logger: logger, now: time.Now}
}

// Stats returns the dashboard for the caller's role.
func (s *DashboardService) Stats(ctx context.Context, scope access.Scope) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{Role: scope.Role}
	var err error
	switch scope.Role {
	case models.RoleDean, models.RoleViceDean:
		stats.Staff, err = s.staff(ctx, scope)
	case models.RoleTeacher:
		stats.Teacher, err = s.teacher(ctx, scope)
	case models.RoleStudent:
		stats.Student, err = s.student(ctx, scope)
	case models.RoleParent:
		stats.Parent, err = s.parent(ctx, scope)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("no dashboard for role %q", scope.Role))
	}
	if err != nil {
		return nil, internalError(err, "failed to build dashboard")
	}
	return stats, nil
}

func (s *DashboardService) staff(ctx context.Context, scope access.Scope) (*models.StaffDashboard, error) {
	active := true
	out := &models.StaffDashboard{WindowDays: s.config.AttendanceDays}
	var err error
	if out.TotalStudents, err = s.repos.Students.Count(ctx, scope, models.StudentFilter{Status: models.StudentActive}); err != nil {
		return nil, err
	}
	if out.TotalTeachers, err = s.repos.Teachers.Count(ctx); err != nil {
		return nil, err
	}
	if out.ActiveGroups, err = s.repos.Groups.Count(ctx, scope, models.GroupFilter{Active: &active}); err != nil {
		return nil, err
	}
	if out.ActiveSubjects, err = s.repos.Subjects.CountActive(ctx); err != nil {
		return nil, err
	}
	if out.GroupsByYear, err = s.repos.Groups.CountByYear(ctx); err != nil {
		return nil, err
	}
	tally, err := s.repos.Attendance.Tally(ctx, scope, s.window(s.config.AttendanceDays, ""))
	if err != nil {
		return nil, err
	}
	out.AttendanceRate = grading.Round2(grading.AttendanceRate(tally.Present, tally.Total))
	return out, nil
}

func (s *DashboardService) teacher(ctx context.Context, scope access.Scope) (*models.TeacherDashboard, error) {
	active := true
	out := &models.TeacherDashboard{}
	var err error
	if out.ActiveCourses, err = s.repos.Courses.Count(ctx, scope, models.CourseFilter{Active: &active}); err != nil {
		return nil, err
	}
	if out.StudentCount, err = s.repos.Students.Count(ctx, scope, models.StudentFilter{Status: models.StudentActive}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) student(ctx context.Context, scope access.Scope) (*models.StudentDashboard, error) {
	out := &models.StudentDashboard{WindowDays: s.config.StudentAttendanceDays}
	if scope.Empty() {
		return out, nil
	}
	profile, err := s.repos.Students.FindByID(ctx, scope.StudentID)
	if err != nil {
		return nil, err
	}
	out.GroupName = profile.GroupName
	out.CourseYear = profile.CourseYear
	tally, err := s.repos.Attendance.Tally(ctx, scope, s.window(s.config.StudentAttendanceDays, scope.StudentID))
	if err != nil {
		return nil, err
	}
	out.AttendanceRate = grading.Round2(grading.AttendanceRate(tally.Present, tally.Total))
	return out, nil
}

func (s *DashboardService) parent(ctx context.Context, scope access.Scope) (*models.ParentDashboard, error) {
	out := &models.ParentDashboard{WindowDays: s.config.StudentAttendanceDays, Children: []models.ChildSummary{}}
	children, err := s.repos.Students.ChildrenOf(ctx, scope.UserID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		tally, err := s.repos.Attendance.Tally(ctx, scope, s.window(s.config.StudentAttendanceDays, child.ID))
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, models.ChildSummary{
			StudentID:      child.ID,
			Name:           child.FullName(),
			GroupName:      child.GroupName,
			AttendanceRate: grading.Round2(grading.AttendanceRate(tally.Present, tally.Total)),
		})
	}
	out.ChildrenCount = len(out.Children)
	return out, nil
}

// window returns a filter covering rows dated on or after today minus days.
func (s *DashboardService) window(days int, studentID string) models.AttendanceFilter {
	from := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
	return models.AttendanceFilter{StudentID: studentID, From: &from}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/grading"
	"github.com/noah-isme/edu-crm-api/internal/models"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
	"github.com/noah-isme/edu-crm-api/pkg/export"
)

type reportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	ListByStudent(ctx context.Context, scope access.Scope, studentID string, limit int) ([]models.Report, error)
}

type reportAttendanceRepository interface {
	SummaryByGroup(ctx context.Context, groupID string, from, to time.Time, teacherID string) ([]models.AttendanceSummaryRow, error)
	TallyByCourse(ctx context.Context, studentID string) ([]models.CourseTallyRow, error)
}

type reportGradeRepository interface {
	ByStudent(ctx context.Context, studentID string) ([]models.CourseGradeRow, error)
}

type reportCourseRepository interface {
	ActiveByGroup(ctx context.Context, groupID string) ([]models.Course, error)
}

// ReportRepositories groups the read models used by reports.
type ReportRepositories struct {
	Reports    reportRepository
	Attendance reportAttendanceRepository
	Grades     reportGradeRepository
	Courses    reportCourseRepository
	Students   studentFinder
	Groups     groupLookup
}

// ReportService builds attendance summaries and transcripts and renders them for download.
type ReportService struct {
	repos  ReportRepositories
	policy grading.Policy
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(repos ReportRepositories, policy grading.Policy, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repos: repos, policy: policy, logger: logger, now: time.Now}
}

// AttendanceSummary aggregates a group's attendance between start and end inclusive.
// Teachers only see their group and only rows of their own courses.
func (s *ReportService) AttendanceSummary(ctx context.Context, scope access.Scope, groupID, start, end string) (*models.AttendanceSummary, error) {
	if groupID == "" || start == "" || end == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, appErrors.ErrValidation.Message)
	}
	from, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, notFoundOr(err, "group not found", "failed to load group")
	}
	if !scope.CanAccessGroup(group.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "group is outside your scope")
	}

	teacherID := ""
	if scope.Role == models.RoleTeacher {
		teacherID = scope.TeacherID
	}
	rows, err := s.repos.Attendance.SummaryByGroup(ctx, group.ID, from, to, teacherID)
	if err != nil {
		return nil, internalError(err, "failed to summarize attendance")
	}
	for i := range rows {
		rows[i].Rate = grading.Round2(grading.AttendanceRate(rows[i].Present, rows[i].Total))
	}
	if rows == nil {
		rows = []models.AttendanceSummaryRow{}
	}
	return &models.AttendanceSummary{
		GroupID:   group.ID,
		GroupName: group.Name,
		StartDate: start,
		EndDate:   end,
		Rows:      rows,
	}, nil
}

// Transcript rolls up every active course of the student's group into final grades and a GPA.
func (s *ReportService) Transcript(ctx context.Context, scope access.Scope, studentID string) (*models.Transcript, error) {
	student, err := s.repos.Students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if !scope.CanAccessStudent(student) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
	}

	courses, err := s.repos.Courses.ActiveByGroup(ctx, student.GroupID)
	if err != nil {
		return nil, internalError(err, "failed to load courses")
	}
	gradeRows, err := s.repos.Grades.ByStudent(ctx, student.ID)
	if err != nil {
		return nil, internalError(err, "failed to load grades")
	}
	tallyRows, err := s.repos.Attendance.TallyByCourse(ctx, student.ID)
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}

	gradesByCourse := make(map[string]map[models.GradeType]float64)
	for _, g := range gradeRows {
		if gradesByCourse[g.CourseID] == nil {
			gradesByCourse[g.CourseID] = make(map[models.GradeType]float64)
		}
		gradesByCourse[g.CourseID][g.GradeType] = g.Score
	}
	tallies := make(map[string]models.AttendanceTally, len(tallyRows))
	for _, t := range tallyRows {
		tallies[t.CourseID] = t.AttendanceTally
	}

	transcript := &models.Transcript{
		StudentID:   student.ID,
		StudentCode: student.StudentCode,
		StudentName: student.FullName(),
		GroupName:   student.GroupName,
		Courses:     make([]models.TranscriptCourse, 0, len(courses)),
		ScoringMode: string(s.policy.Mode),
		GeneratedAt: s.now().UTC(),
	}
	entries := make([]grading.Entry, 0, len(courses))
	for _, course := range courses {
		tally := tallies[course.ID]
		grades := gradesByCourse[course.ID]
		if grades == nil {
			grades = map[models.GradeType]float64{}
		}
		rate := grading.AttendanceRate(tally.Present, tally.Total)
		final := s.policy.FinalGrade(rate, grades)

		transcript.Courses = append(transcript.Courses, models.TranscriptCourse{
			CourseID:       course.ID,
			SubjectName:    course.SubjectName,
			SubjectCode:    course.SubjectCode,
			Credits:        course.Credits,
			AcademicYear:   course.AcademicYear,
			Semester:       course.Semester,
			AttendanceRate: grading.Round2(rate),
			Grades:         grades,
			FinalGrade:     grading.Round2(final),
		})
		entries = append(entries, grading.Entry{
			FinalGrade: final,
			Credits:    course.Credits,
			HasData:    tally.Total > 0 || len(grades) > 0,
		})
	}
	transcript.TotalCredits = s.policy.IncludedCredits(entries)
	transcript.GPA = grading.Round2(s.policy.GPA(entries))
	return transcript, nil
}

// Snapshot persists the current transcript of a student.
func (s *ReportService) Snapshot(ctx context.Context, scope access.Scope, studentID string) (*models.Report, error) {
	transcript, err := s.Transcript(ctx, scope, studentID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(transcript)
	if err != nil {
		return nil, internalError(err, "failed to encode transcript")
	}
	report := &models.Report{
		ReportType: models.ReportTranscript,
		StudentID:  &transcript.StudentID,
		Period:     transcript.GeneratedAt.Format("2006-01"),
		Data:       payload,
		CreatedBy:  scope.UserID,
	}
	if err := s.repos.Reports.Create(ctx, report); err != nil {
		return nil, internalError(err, "failed to save report")
	}
	s.logger.Info("transcript snapshot saved", zap.String("report_id", report.ID), zap.String("student_id", studentID))
	return report, nil
}

// History lists stored snapshots visible to scope, optionally for one student.
func (s *ReportService) History(ctx context.Context, scope access.Scope, studentID string, limit int) ([]models.Report, error) {
	if studentID != "" {
		student, err := s.repos.Students.FindByID(ctx, studentID)
		if err != nil {
			return nil, notFoundOr(err, "student not found", "failed to load student")
		}
		if !scope.CanAccessStudent(student) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
		}
	}
	reports, err := s.repos.Reports.ListByStudent(ctx, scope, studentID, limit)
	if err != nil {
		return nil, internalError(err, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Render produces a downloadable document in format.
func (s *ReportService) Render(data export.Dataset, format export.Format) ([]byte, error) {
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported format")
	}
	out, err := renderer.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	return out, nil
}

// AttendanceSummaryDataset flattens a summary for export.
func AttendanceSummaryDataset(summary *models.AttendanceSummary) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Attendance %s %s to %s", summary.GroupName, summary.StartDate, summary.EndDate),
		Headers: []string{"Student Code", "Name", "Present", "Absent", "Late", "Total", "Rate %"},
	}
	for _, row := range summary.Rows {
		data.Rows = append(data.Rows, map[string]string{
			"Student Code": row.StudentCode,
			"Name":         models.User{FirstName: row.FirstName, LastName: row.LastName}.FullName(),
			"Present":      strconv.Itoa(row.Present),
			"Absent":       strconv.Itoa(row.Absent),
			"Late":         strconv.Itoa(row.Late),
			"Total":        strconv.Itoa(row.Total),
			"Rate %":       formatScore(row.Rate),
		})
	}
	return data
}

// TranscriptDataset flattens a transcript for export.
func TranscriptDataset(t *models.Transcript) export.Dataset {
	data := export.Dataset{
		Title: fmt.Sprintf("Transcript %s (%s) %s", t.StudentName, t.StudentCode, t.GroupName),
		Headers: []string{
			"Code", "Subject", "Credits", "Year", "Semester", "Attendance %",
			"Activity", "Midterm 1", "Midterm 2", "Final Exam", "Final Grade",
		},
		Footer: [][2]string{
			{"Total credits", strconv.Itoa(t.TotalCredits)},
			{"GPA", formatScore(t.GPA)},
			{"Scoring", t.ScoringMode},
		},
	}
	for _, c := range t.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"Code":         c.SubjectCode,
			"Subject":      c.SubjectName,
			"Credits":      strconv.Itoa(c.Credits),
			"Year":         c.AcademicYear,
			"Semester":     strconv.Itoa(c.Semester),
			"Attendance %": formatScore(c.AttendanceRate),
			"Activity":     gradeCell(c.Grades, models.GradeActivity),
			"Midterm 1":    gradeCell(c.Grades, models.GradeMidterm1),
			"Midterm 2":    gradeCell(c.Grades, models.GradeMidterm2),
			"Final Exam":   gradeCell(c.Grades, models.GradeFinal),
			"Final Grade":  formatScore(c.FinalGrade),
		})
	}
	return data
}

func gradeCell(grades map[models.GradeType]float64, t models.GradeType) string {
	v, ok := grades[t]
	if !ok {
		return "-"
	}
	return formatScore(v)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

package models

// StaffDashboard is shown to deans and vice deans.
type StaffDashboard struct {
	TotalStudents  int         `json:"total_students"`
	TotalTeachers  int         `json:"total_teachers"`
	ActiveGroups   int         `json:"active_groups"`
	ActiveSubjects int         `json:"active_subjects"`
	AttendanceRate float64     `json:"attendance_rate"`
	WindowDays     int         `json:"window_days"`
	GroupsByYear   map[int]int `json:"groups_by_year"`
}

// TeacherDashboard is shown to teachers.
type TeacherDashboard struct {
	ActiveCourses int `json:"active_courses"`
	StudentCount  int `json:"student_count"`
}

// StudentDashboard is shown to students.
type StudentDashboard struct {
	GroupName      string  `json:"group_name"`
	CourseYear     int     `json:"course_year"`
	AttendanceRate float64 `json:"attendance_rate"`
	WindowDays     int     `json:"window_days"`
}

// ChildSummary is one child line on a parent dashboard.
type ChildSummary struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	GroupName      string  `json:"group_name"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ParentDashboard is shown to parents.
type ParentDashboard struct {
	ChildrenCount int            `json:"children_count"`
	Children      []ChildSummary `json:"children"`
	WindowDays    int            `json:"window_days"`
}

// DashboardStats wraps the role specific section.
type DashboardStats struct {
	Role    UserRole          `json:"role"`
	Staff   *StaffDashboard   `json:"staff,omitempty"`
	Teacher *TeacherDashboard `json:"teacher,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
	Parent  *ParentDashboard  `json:"parent,omitempty"`
}

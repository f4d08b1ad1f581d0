package models

// Enrollment is the derived binding of a student to a course through the course's group.
type Enrollment struct {
	CourseID     string `db:"course_id" json:"course_id"`
	StudentID    string `db:"student_id" json:"student_id"`
	StudentCode  string `db:"student_code" json:"student_code"`
	StudentName  string `db:"student_name" json:"student_name"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	GroupID      string `db:"group_id" json:"group_id"`
	AcademicYear string `db:"academic_year" json:"academic_year"`
	Semester     int    `db:"semester" json:"semester"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	CourseID  string
	StudentID string
	Page      int
	PageSize  int
}

// VisibilityCounts reports how many records of each kind the caller can see.
type VisibilityCounts struct {
	Students    int `json:"students"`
	Groups      int `json:"groups"`
	Courses     int `json:"courses"`
	Enrollments int `json:"enrollments"`
}

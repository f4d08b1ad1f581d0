package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/grading"
	"github.com/noah-isme/edu-crm-api/internal/handler"
	"github.com/noah-isme/edu-crm-api/internal/middleware"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/repository"
	"github.com/noah-isme/edu-crm-api/internal/service"
	"github.com/noah-isme/edu-crm-api/pkg/config"
	"github.com/noah-isme/edu-crm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-crm-api/pkg/middleware/requestid"
)

var (
	deanOnly      = []models.UserRole{models.RoleDean}
	management    = []models.UserRole{models.RoleDean, models.RoleViceDean}
	academicStaff = []models.UserRole{models.RoleDean, models.RoleViceDean, models.RoleTeacher}
)

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, denylist *repository.DenylistRepository) *gin.Engine {
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	subjects := repository.NewSubjectRepository(db)
	teachers := repository.NewTeacherRepository(db)
	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	grades := repository.NewGradeRepository(db)
	ratings := repository.NewRatingRepository(db)
	behavior := repository.NewBehaviorRepository(db)
	reports := repository.NewReportRepository(db)

	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	editPolicy := access.NewEditPolicy(cfg.EditWindow)
	gradingPolicy := grading.NewPolicy(cfg.Grading)
	resolver := access.NewResolver(repository.NewProfileLookup(teachers, students))

	var tokenDenylist service.TokenDenylist
	if denylist.Enabled() {
		tokenDenylist = denylist
	}
	authSvc := service.NewAuthService(users, tokenDenylist, validate, logr, metrics, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(service.NewUserService(users, validate, logr))
	groupHandler := handler.NewGroupHandler(service.NewGroupService(groups, validate, logr))
	subjectHandler := handler.NewSubjectHandler(service.NewSubjectService(subjects, validate, logr))
	teacherHandler := handler.NewTeacherHandler(service.NewTeacherService(teachers, validate, logr))
	courseHandler := handler.NewCourseHandler(service.NewCourseService(courses, subjects, teachers, groups, editPolicy, validate, logr))
	studentHandler := handler.NewStudentHandler(service.NewStudentService(students, groups, validate, logr))
	enrollmentHandler := handler.NewEnrollmentHandler(service.NewEnrollmentService(courses, students, groups, logr))
	attendanceHandler := handler.NewAttendanceHandler(service.NewAttendanceService(attendance, courses, students, editPolicy, validate, logr, metrics))
	gradeHandler := handler.NewGradeHandler(service.NewGradeService(grades, ratings, courses, students, editPolicy, validate, logr, metrics))
	behaviorHandler := handler.NewBehaviorHandler(service.NewBehaviorService(behavior, students, courses, validate, logr))
	dashboardHandler := handler.NewDashboardHandler(service.NewDashboardService(service.DashboardRepositories{
		Students:   students,
		Groups:     groups,
		Teachers:   teachers,
		Subjects:   subjects,
		Courses:    courses,
		Attendance: attendance,
	}, cfg.Dashboard, logr))
	reportHandler := handler.NewReportHandler(service.NewReportService(service.ReportRepositories{
		Reports:    reports,
		Attendance: attendance,
		Grades:     grades,
		Courses:    courses,
		Students:   students,
		Groups:     groups,
	}, gradingPolicy, logr))
	healthHandler := handler.NewHealthHandler(db, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action models.AuditAction, resource string) gin.HandlerFunc {
		return middleware.Audit(users, logr, action, resource)
	}
	roles := middleware.RequireRoles

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.POST("/admin/users", roles(deanOnly...), userHandler.Create)
	secured.GET("/users", roles(management...), userHandler.List)

	scoped := secured.Group("")
	scoped.Use(middleware.Scope(resolver, logr))

	scoped.GET("/groups", groupHandler.List)
	scoped.GET("/groups/:id", groupHandler.Get)
	scoped.POST("/groups", roles(management...), audit(models.AuditActionCreate, "groups"), groupHandler.Create)

	scoped.GET("/subjects", subjectHandler.List)
	scoped.POST("/subjects", roles(management...), audit(models.AuditActionCreate, "subjects"), subjectHandler.Create)

	scoped.GET("/teachers", roles(management...), teacherHandler.List)
	scoped.POST("/teachers", roles(management...), audit(models.AuditActionCreate, "teachers"), teacherHandler.Create)

	scoped.GET("/courses", courseHandler.List)
	scoped.GET("/courses/:id", courseHandler.Get)
	scoped.GET("/courses/:id/roster", roles(academicStaff...), courseHandler.Roster)
	scoped.POST("/courses", roles(management...), audit(models.AuditActionCreate, "courses"), courseHandler.Create)

	scoped.GET("/students", studentHandler.List)
	scoped.GET("/students/search", studentHandler.Search)
	scoped.GET("/students/:id", studentHandler.Get)
	scoped.POST("/students", roles(management...), audit(models.AuditActionCreate, "students"), studentHandler.Create)
	scoped.POST("/students/import", roles(management...), audit(models.AuditActionImport, "students"), studentHandler.Import)
	scoped.PUT("/students/:id", roles(management...), audit(models.AuditActionUpdate, "students"), studentHandler.Update)
	scoped.DELETE("/students/:id", roles(management...), audit(models.AuditActionDelete, "students"), studentHandler.Delete)

	scoped.GET("/enrollments", enrollmentHandler.List)
	scoped.GET("/visibility/counts", enrollmentHandler.Counts)

	scoped.GET("/attendance", roles(academicStaff...), attendanceHandler.List)
	scoped.POST("/attendance/bulk", roles(academicStaff...), audit(models.AuditActionCreate, "attendance"), attendanceHandler.BulkSave)
	scoped.PUT("/attendance/:id", roles(academicStaff...), audit(models.AuditActionUpdate, "attendance"), attendanceHandler.Update)

	scoped.GET("/grades", gradeHandler.List)
	scoped.POST("/grades", roles(academicStaff...), audit(models.AuditActionUpdate, "grades"), gradeHandler.SaveGrade)
	scoped.POST("/exams", roles(academicStaff...), audit(models.AuditActionUpdate, "exams"), gradeHandler.SaveExam)
	scoped.POST("/ratings", roles(academicStaff...), audit(models.AuditActionUpdate, "ratings"), gradeHandler.SaveRating)

	scoped.GET("/behavior", behaviorHandler.List)
	scoped.POST("/behavior", roles(academicStaff...), audit(models.AuditActionCreate, "behavior"), behaviorHandler.Create)

	scoped.GET("/dashboard/statistics", dashboardHandler.Stats)

	scoped.GET("/reports/attendance-summary", roles(academicStaff...), reportHandler.AttendanceSummary)
	scoped.GET("/reports/transcript/:student_id", reportHandler.Transcript)
	scoped.POST("/reports/transcript/:student_id/snapshot", roles(academicStaff...), audit(models.AuditActionCreate, "reports"), reportHandler.Snapshot)
	scoped.GET("/reports/history", roles(academicStaff...), reportHandler.History)

	return r
}

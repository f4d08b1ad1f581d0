package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Grading    GradingConfig
	EditWindow EditWindowConfig
	Bootstrap  BootstrapConfig
	Dashboard  DashboardConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	// File enables a rotated log file next to stdout when set.
	File string
}

// GradingConfig carries the weighted final-grade policy. Weights are expected to sum to 1.0.
type GradingConfig struct {
	AttendanceWeight float64
	ActivityWeight   float64
	MidtermWeight    float64
	FinalWeight      float64
	Mode             string
}

// EditWindowConfig holds the number of days each role may still modify a record after creation.
type EditWindowConfig struct {
	TeacherAttendanceDays int
	TeacherGradesDays     int
	ViceDeanDays          int
}

// BootstrapConfig gates seeding of the initial dean account.
type BootstrapConfig struct {
	Dean         bool
	DeanEmail    string
	DeanPassword string
}

// DashboardConfig sets trailing windows used by dashboard attendance rates.
type DashboardConfig struct {
	AttendanceDays        int
	StudentAttendanceDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
		File:   v.GetString("LOG_FILE"),
	}

	cfg.Grading = GradingConfig{
		AttendanceWeight: v.GetFloat64("GRADE_WEIGHT_ATTENDANCE"),
		ActivityWeight:   v.GetFloat64("GRADE_WEIGHT_ACTIVITY"),
		MidtermWeight:    v.GetFloat64("GRADE_WEIGHT_MIDTERM"),
		FinalWeight:      v.GetFloat64("GRADE_WEIGHT_FINAL"),
		Mode:             strings.ToLower(v.GetString("GRADE_SCORING_MODE")),
	}

	cfg.EditWindow = EditWindowConfig{
		TeacherAttendanceDays: v.GetInt("EDIT_WINDOW_TEACHER_ATTENDANCE_DAYS"),
		TeacherGradesDays:     v.GetInt("EDIT_WINDOW_TEACHER_GRADES_DAYS"),
		ViceDeanDays:          v.GetInt("EDIT_WINDOW_VICE_DEAN_DAYS"),
	}

	// Seeding defaults to on outside production; production must opt in explicitly.
	bootstrap := cfg.Env != EnvProduction
	if v.IsSet("BOOTSTRAP_DEAN") {
		bootstrap = v.GetBool("BOOTSTRAP_DEAN")
	}
	cfg.Bootstrap = BootstrapConfig{
		Dean:         bootstrap,
		DeanEmail:    v.GetString("BOOTSTRAP_DEAN_EMAIL"),
		DeanPassword: v.GetString("BOOTSTRAP_DEAN_PASSWORD"),
	}

	cfg.Dashboard = DashboardConfig{
		AttendanceDays:        v.GetInt("DASHBOARD_ATTENDANCE_DAYS"),
		StudentAttendanceDays: v.GetInt("STUDENT_ATTENDANCE_DAYS"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "education_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "edu-crm-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("GRADE_WEIGHT_ATTENDANCE", 0.30)
	v.SetDefault("GRADE_WEIGHT_ACTIVITY", 0.20)
	v.SetDefault("GRADE_WEIGHT_MIDTERM", 0.25)
	v.SetDefault("GRADE_WEIGHT_FINAL", 0.25)
	v.SetDefault("GRADE_SCORING_MODE", "compat")

	v.SetDefault("EDIT_WINDOW_TEACHER_ATTENDANCE_DAYS", 1)
	v.SetDefault("EDIT_WINDOW_TEACHER_GRADES_DAYS", 7)
	v.SetDefault("EDIT_WINDOW_VICE_DEAN_DAYS", 30)

	v.SetDefault("BOOTSTRAP_DEAN_EMAIL", "dean@university.tj")
	v.SetDefault("BOOTSTRAP_DEAN_PASSWORD", "dean123")

	v.SetDefault("DASHBOARD_ATTENDANCE_DAYS", 7)
	v.SetDefault("STUDENT_ATTENDANCE_DAYS", 30)
}

// WeightSum returns the sum of all grading weights.
func (g GradingConfig) WeightSum() float64 {
	return g.AttendanceWeight + g.ActivityWeight + g.MidtermWeight + g.FinalWeight
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

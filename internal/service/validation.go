package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-crm-api/internal/access"
	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/internal/repository"
	appErrors "github.com/noah-isme/edu-crm-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	return v
}

// validationError maps validator failures to VALIDATION_ERROR.
// A missing required field always reads "incomplete data".
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// maxPasswordBytes is the bcrypt input limit. The validator's max counts runes, so multi-byte
// passwords still need the byte check in hashPassword.
const maxPasswordBytes = 72

// hashPassword bcrypt-hashes password. Over-long input is a VALIDATION_ERROR.
func hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, "password must not exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password must not exceed 72 bytes")
	}
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(hash), nil
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// editCheck binds the edit-window policy to the acting role for use inside repository transactions.
func editCheck(policy access.EditPolicy, kind access.RecordKind, role models.UserRole, now func() time.Time) repository.EditCheck {
	return func(createdAt time.Time) error {
		return policy.Check(kind, role, createdAt, now()).Err(kind)
	}
}

func paginate(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

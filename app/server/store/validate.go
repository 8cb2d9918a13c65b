package store

import (
	"errors"
	"fmt"
	"reflect"
	"scaffold-api/app/server/models"
	"scaffold-api/app/server/utils"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 用户记录中可写入的字段及其约束
type recordFields struct {
	Username     string `json:"username" validate:"required,min=3,max=30"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"firstName" validate:"max=50"`
	LastName     string `json:"lastName" validate:"max=50"`
	Role         string `json:"role" validate:"required,oneof=user admin moderator"`
	ProfileImage string `json:"profileImage" validate:"max=2048"`
}

type passwordField struct {
	Password string `json:"password" validate:"required,min=6,max=72,maxbytes=72"`
}

var messages = map[string]string{
	"username.required": "Username is required",
	"username.min":      "Username must be at least 3 characters long",
	"username.max":      "Username cannot exceed 30 characters",
	"email.required":    "Email is required",
	"email.email":       "Please enter a valid email",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters long",
	"password.max":      "Password cannot exceed 72 characters",
	"password.maxbytes": "Password cannot exceed 72 bytes",
	"firstName.max":     "First name cannot exceed 50 characters",
	"lastName.max":      "Last name cannot exceed 50 characters",
	"role.required":     "Role is required",
	"role.oneof":        "Role must be one of " + strings.Join(models.Roles, ", "),
	"profileImage.max":  "Profile image cannot exceed 2048 characters",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// 按字节计算长度，多字节字符会更快达到 bcrypt 的上限
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// normalize applies the canonical form of stored fields.
func normalize(u *models.User) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
}

// validateRecord checks every writable field of u, and the plaintext password
// when one is given, returning all violations at once.
func (s *UserStore) validateRecord(u *models.User, password *string) error {
	fields := recordFields{
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		ProfileImage: utils.V(u.ProfileImage),
	}

	var violations []FieldViolation
	if err := s.collect(fields, &violations); err != nil {
		return err
	}
	if password != nil {
		if err := s.collect(passwordField{Password: *password}, &violations); err != nil {
			return err
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (s *UserStore) collect(target any, violations *[]FieldViolation) error {
	err := s.validate.Struct(target)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %w", err)
	}
	for _, fe := range ves {
		*violations = append(*violations, FieldViolation{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return nil
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

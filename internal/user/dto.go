package user

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/goliatone/go-user-cache/internal/apperr"
)

// TimeLayout renders timestamps in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

const maxFieldLength = 50

var phonePattern = regexp.MustCompile(`^\d{2,3}-\d{3,4}-\d{4}$`)

// CreateRequest is the body of POST /api/v1/users.
type CreateRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// Validate checks every field and returns an *apperr.Error listing all failures.
func (r CreateRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			validation.RuneLength(1, maxFieldLength).Error("email must not exceed 50 characters"),
			is.EmailFormat.Error("EMAIL type is invalid."),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(1, maxFieldLength).Error("password must not exceed 50 characters"),
		),
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, maxFieldLength).Error("name must not exceed 50 characters"),
		),
		validation.Field(&r.PhoneNumber,
			validation.Required.Error("phoneNumber is required"),
			validation.Match(phonePattern).Error("phoneNumber must look like 010-1234-5678"),
		),
	)
	return toAppError(err, map[string]any{
		"email":       r.Email,
		"name":        r.Name,
		"phoneNumber": r.PhoneNumber,
	})
}

// UpdateRequest is the body of PUT /api/v1/users/{id}. Nil fields are left untouched.
type UpdateRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Empty reports whether no updatable field was supplied.
func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.PhoneNumber == nil
}

// Validate checks the supplied fields only.
func (r UpdateRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.NilOrNotEmpty.Error("name must not be blank"),
			validation.RuneLength(0, maxFieldLength).Error("name must not exceed 50 characters"),
		),
		validation.Field(&r.PhoneNumber,
			validation.NilOrNotEmpty.Error("phoneNumber must not be blank"),
			validation.Match(phonePattern).Error("phoneNumber must look like 010-1234-5678"),
		),
	)
	rejected := map[string]any{}
	if r.Name != nil {
		rejected["name"] = *r.Name
	}
	if r.PhoneNumber != nil {
		rejected["phoneNumber"] = *r.PhoneNumber
	}
	return toAppError(err, rejected)
}

// toAppError converts ozzo results into the validation taxonomy entry. Password
// values are never echoed back, so only fields in rejected carry a value.
func toAppError(err error, rejected map[string]any) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperr.Internal(err)
	}

	fields := make([]apperr.FieldError, 0, len(errs))
	for field, fieldErr := range errs {
		fields = append(fields, apperr.FieldError{
			Field:         field,
			Message:       fieldErr.Error(),
			RejectedValue: rejected[field],
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	appErr := apperr.Validation("Invalid request content.", fields...)
	if len(fields) == 1 && fields[0].Field == "email" && errorCode(errs["email"]) == is.ErrEmail.Code() {
		appErr.Code = apperr.CodeEmailInvalid
		appErr.Message = "EMAIL type is invalid."
	}
	return appErr
}

func errorCode(err error) string {
	var vErr validation.Error
	if errors.As(err, &vErr) {
		return vErr.Code()
	}
	return ""
}

// Response is the public representation of a user. It never carries the password.
type Response struct {
	ID          int64     `json:"id" msgpack:"id"`
	Email       string    `json:"email" msgpack:"email"`
	Name        string    `json:"name" msgpack:"name"`
	PhoneNumber string    `json:"phoneNumber" msgpack:"phoneNumber"`
	Status      Status    `json:"status" msgpack:"status"`
	CreatedAt   time.Time `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" msgpack:"updatedAt"`
}

// NewResponse maps an entity to its public representation.
func NewResponse(u *User) Response {
	return Response{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type responseJSON struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// MarshalJSON renders timestamps with TimeLayout.
func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		ID:          r.ID,
		Email:       r.Email,
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC().Format(TimeLayout),
		UpdatedAt:   r.UpdatedAt.UTC().Format(TimeLayout),
	})
}

// UnmarshalJSON parses timestamps written by MarshalJSON.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw responseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	createdAt, err := time.Parse(TimeLayout, raw.CreatedAt)
	if err != nil {
		return err
	}
	updatedAt, err := time.Parse(TimeLayout, raw.UpdatedAt)
	if err != nil {
		return err
	}

	*r = Response{
		ID:          raw.ID,
		Email:       raw.Email,
		Name:        raw.Name,
		PhoneNumber: raw.PhoneNumber,
		Status:      raw.Status,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	return nil
}

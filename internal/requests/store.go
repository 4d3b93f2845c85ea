package requests

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

// Store persists paint requests. Implementations return *pkgerrors.Error values
// for NOT_FOUND, VALIDATION_ERROR, DUPLICATE_CODE and STATE_CONFLICT; anything
// else is an infrastructure failure.
type Store interface {
	Create(ctx context.Context, draft Draft, now time.Time) (*models.PaintRequest, error)
	GetByID(ctx context.Context, id int64) (*models.PaintRequest, error)
	GetByCode(ctx context.Context, code string) (*models.PaintRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.PaintRequest, error)
	ApplyStatus(ctx context.Context, id int64, change StatusChange) (*models.PaintRequest, error)
	CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// validateDraft enforces the create-time rules shared by every Store.
func validateDraft(draft Draft) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request draft")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid request draft").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gt":
		return "must be at least " + minParam(fe)
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

func minParam(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "1"
	}
	return fe.Param()
}

func errRequestNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
}

func errDuplicateCode(code string, cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDuplicateCode, cause, "request code already exists").
		WithDetails(map[string]any{"requestCode": code})
}

func errStatusChanged(id int64, expected enums.RequestStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "request status changed concurrently").
		WithDetails(map[string]any{"id": id, "expected": expected})
}

func newRow(draft Draft, code string, now time.Time) models.PaintRequest {
	return models.PaintRequest{
		RequestCode:     code,
		UserID:          draft.UserID,
		OriginStation:   draft.OriginStation,
		PartDescription: draft.PartDescription,
		PartCode:        draft.PartCode,
		PartColor:       draft.PartColor,
		Quantity:        draft.Quantity,
		Priority:        draft.Priority,
		Notes:           draft.Notes,
		Status:          enums.RequestStatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

package database

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or has no dedicated mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return mapCheckConstraint(pqErr)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))
	case "23503":
		return errors.BadRequest("referenced record does not exist")
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})
	case "22003":
		col := pqErr.Column
		if col == "" {
			col = "value"
		}
		return errors.Validation(map[string]string{col: "is out of range"})
	case "22P02":
		return errors.BadRequest("malformed identifier")
	default:
		return nil
	}
}

// Translate maps storage errors for a resource: missing rows become NOT_FOUND,
// constraint violations get their AppError, anything else is wrapped as internal.
func Translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	if mapped := MapPQError(err); mapped != nil {
		return mapped
	}
	return errors.InternalWrap(err, "database operation failed")
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email_format"):
		return errors.Validation(map[string]string{"email": "must be a valid email address"})
	case strings.Contains(constraint, "leads_status"):
		return errors.Validation(map[string]string{"status": "must be one of: new, contacted, qualified, lost"})
	case strings.Contains(constraint, "contacts_status"):
		return errors.Validation(map[string]string{"status": "must be one of: lead, customer, partner, vendor"})
	case strings.Contains(constraint, "related_type"):
		return errors.Validation(map[string]string{"related_type": "must be one of: lead, contact"})
	case strings.Contains(constraint, "role"):
		return errors.Validation(map[string]string{"role": "must be one of: " + strings.Join(permissions.ValidRoles(), ", ")})
	case strings.Contains(constraint, "theme"):
		return errors.Validation(map[string]string{"theme": "must be one of: light, dark, system"})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "identities_email"):
		return "an account with this email already exists"
	case strings.Contains(constraint, "invitations_pending"):
		return "a pending invitation already exists for this email"
	case strings.Contains(constraint, "settings_tenant"):
		return "settings already exist for this organization"
	case strings.Contains(constraint, "email"):
		return "a record with this email already exists"
	default:
		return "a record with these values already exists"
	}
}

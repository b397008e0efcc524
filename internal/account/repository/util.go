package repository

import (
	"database/sql"

	"github.com/leadhub/leadhub-backend/pkg/errors"
)

// requireRow turns "no rows affected" into NOT_FOUND.
func requireRow(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.InternalWrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

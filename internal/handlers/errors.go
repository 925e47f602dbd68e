package handlers

import (
	"net/http"
	"strings"
)

// isMissingTable spots the underlying "table does not exist" failure so
// reads can degrade to an empty result. Callers routinely probe tables that
// may not exist yet.
func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || // sqlite
		strings.Contains(msg, "Error 1146") || // mysql
		strings.Contains(msg, "doesn't exist")
}

// translateDBError maps constraint violations to 4xx with a domain message;
// anything else stays a 500 with the underlying error.
func translateDBError(err error) (int, string) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "Duplicate entry"):
		return http.StatusConflict, "record already exists"
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "foreign key constraint"):
		return http.StatusBadRequest, "row is referenced by other records"
	}
	return http.StatusInternalServerError, msg
}

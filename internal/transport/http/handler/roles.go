package handler

import (
	"net/http"

	"github.com/go-registrar-portal/internal/domain"
)

// ListRoles returns the fixed staff role set.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.StaffRoles)
}

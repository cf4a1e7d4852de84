package httpadapter

import (
	"net/http"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrClaimNotFound),
		domain.IsKind(err, domain.ErrMemberNotFound),
		domain.IsKind(err, domain.ErrPatientNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Error: message, Code: code, RequestID: GetRequestID(c)})
}

// respondDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported without their text.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden", err.Error())
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case domain.IsSeatNotAvailable(err):
		respondError(c, http.StatusConflict, "seat_not_available", err.Error())
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	default:
		log.Printf("[HTTP] request_id=%s internal error: %v", GetRequestID(c), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

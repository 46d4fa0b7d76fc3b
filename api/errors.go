package api

import (
	"chat-relay/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Errors []errors.Code `json:"errors"`
}

// StatusOf maps an error kind to the HTTP status the clients expect.
func StatusOf(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindIllegalState, errors.KindAuthorization:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindUnauthenticated:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusOf(err), errorResponse{Errors: errors.CodesOf(err)})
}

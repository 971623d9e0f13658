package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
)

// fail answers {msg} with the status for err. An empty msg falls back to the
// error text; server-side failures are logged and get a generic message.
func fail(c *gin.Context, err error, msg string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"msg": "Server error"})
		return
	}
	if msg == "" {
		msg = message(err)
	}
	c.JSON(status, gin.H{"msg": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": msg})
}

var kinds = []error{apperr.ErrInvalid, apperr.ErrConflict, apperr.ErrUnauthorized, apperr.ErrNotFound, apperr.ErrForbidden}

// message drops the ": <kind>" suffix added when wrapping a sentinel.
func message(err error) string {
	s := err.Error()
	for _, kind := range kinds {
		if trimmed := strings.TrimSuffix(s, ": "+kind.Error()); trimmed != s {
			return trimmed
		}
	}
	return s
}

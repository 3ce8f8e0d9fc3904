package response

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
)

var errInternal = errors.New("internal error")

// RespondServiceError maps a service error onto the envelope. *apierr.Error
// keeps its status and code; 5xx messages and non-API errors are replaced with
// a generic message under fallbackCode so driver errors never leak.
func RespondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status == 0 {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, fallbackCode, errInternal)
		return
	}
	if ae.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, errInternal)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

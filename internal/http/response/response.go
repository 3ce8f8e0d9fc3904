// Package response writes the JSON bodies of the /api surface.
//
// Successful calls return the payload as is. Failed calls return
//
//	{"error": {"code": "slot_taken", "message": "...", "request_id": "..."}}
//
// where code is stable and safe to branch on, and request_id matches the
// X-Request-Id response header.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
)

type ErrorBody struct {
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// RespondError aborts the chain and writes the error envelope. The message is
// err's text, so callers must not pass errors carrying internal detail.
func RespondError(c *gin.Context, status int, code string, err error) {
	body := ErrorBody{Code: code, Message: http.StatusText(status)}
	if err != nil {
		body.Message = err.Error()
	}
	if c.Request != nil {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			body.RequestID = rd.RequestID
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

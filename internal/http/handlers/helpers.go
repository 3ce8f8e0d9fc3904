package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

const maxImageBytes = 8 << 20

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func pageFromQuery(c *gin.Context) services.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return services.Page{Page: page, PageSize: size}
}

// timeQuery parses an optional RFC3339 or YYYY-MM-DD query value. Dates are UTC midnight.
func timeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", key)
	}
	return &t, nil
}

// readImage accepts a multipart "file" field or a raw image body.
func readImage(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+1<<20)
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return nil, false
		}
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return nil, false
		}
		defer f.Close()
		src = f
	}
	raw, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_image", err)
		return nil, false
	}
	if len(raw) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_image", fmt.Errorf("empty upload"))
		return nil, false
	}
	if len(raw) > maxImageBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "image_too_large", fmt.Errorf("image exceeds %d bytes", maxImageBytes))
		return nil, false
	}
	return raw, true
}

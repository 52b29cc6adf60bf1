package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
	"github.com/tenclo/intradesk/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrUnsupportedType):
		response.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", "only pdf, jpeg and png uploads are accepted")
	case errors.Is(err, appErr.ErrInvalidFile):
		response.Error(c, http.StatusUnsupportedMediaType, "invalid_file", "file could not be decoded")
	case errors.Is(err, appErr.ErrUploadFailed):
		response.Error(c, http.StatusInternalServerError, "upload_failed", "failed to store file")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

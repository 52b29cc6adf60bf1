package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tenclo/intradesk/internal/pkg/response"
	"github.com/tenclo/intradesk/internal/service"
)

type CircularHandler struct {
	ingest    *service.IngestService
	circulars *service.CircularService
	maxUpload int64
}

func NewCircularHandler(ingest *service.IngestService, circulars *service.CircularService, maxUploadMB int64) *CircularHandler {
	return &CircularHandler{
		ingest:    ingest,
		circulars: circulars,
		maxUpload: maxUploadMB * 1024 * 1024,
	}
}

func (h *CircularHandler) Create(c *gin.Context) {
	headline := c.PostForm("headline")
	if headline == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "headline is required")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "file is required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, http.StatusBadRequest, "invalid", "file exceeds upload limit of "+formatUploadLimit(h.maxUpload))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "failed to read file")
		return
	}

	circular, err := h.ingest.Ingest(c.Request.Context(), headline, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, circular)
}

func (h *CircularHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	circular, err := h.circulars.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, circular)
}

func (h *CircularHandler) List(c *gin.Context) {
	limit := parseQueryInt(c, "limit")
	offset := parseQueryInt(c, "offset")
	circulars, err := h.circulars.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, circulars)
}

func parseQueryInt(c *gin.Context, name string) int {
	value := c.Query(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}

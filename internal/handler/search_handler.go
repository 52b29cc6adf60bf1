package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tenclo/intradesk/internal/pkg/response"
	"github.com/tenclo/intradesk/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "q is required")
		return
	}
	k := 0
	if value := c.Query("k"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid", "k must be an integer")
			return
		}
		k = parsed
	}
	results, err := h.search.Search(c.Request.Context(), query, k)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, results)
}

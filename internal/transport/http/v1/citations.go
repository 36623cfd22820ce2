package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// Citation handles POST /api/citations and returns the evidence document as-is.
func (h *Handler) Citation(c echo.Context) error {
	var req domain.CitationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ev, err := h.service.ResolveCitation(requestContext(c), Carrier(c), req)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, ev.ContentType, ev.Data)
}

package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatrelay/internal/domain"
)

// GetVotes handles GET /api/vote?chatId=.
func (h *Handler) GetVotes(c echo.Context) error {
	votes, err := h.service.ListVotes(requestContext(c), Carrier(c), c.QueryParam("chatId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, votes)
}

// Vote handles POST and PATCH /api/vote.
func (h *Handler) Vote(c echo.Context) error {
	var req domain.VoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	vote, err := h.service.CastVote(requestContext(c), Carrier(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, vote)
}

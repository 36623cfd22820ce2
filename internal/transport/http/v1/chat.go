package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/stream"
)

// DataStreamHeader marks a response body as a frame stream.
const DataStreamHeader = "X-Vercel-AI-Data-Stream"

// Chat handles POST /api/chat. Errors before streaming are JSON with a
// status code; after the stream starts they arrive as an error frame.
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.service.RelayChat(requestContext(c), Carrier(c), &req, func() (stream.Sink, error) {
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
		res.Header().Set(DataStreamHeader, "v1")
		res.Header().Set("Cache-Control", "no-cache")
		res.Header().Set("X-Accel-Buffering", "no")
		res.WriteHeader(http.StatusOK)
		return stream.NewHTTPSink(res), nil
	})
	if err != nil {
		return writeError(c, err)
	}
	return nil
}

// DeleteChat handles DELETE /api/chat?id=.
func (h *Handler) DeleteChat(c echo.Context) error {
	id := c.QueryParam("id")
	if err := h.service.DeleteChat(requestContext(c), Carrier(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// History handles GET /api/history.
func (h *Handler) History(c echo.Context) error {
	chats, err := h.service.ListHistory(requestContext(c), Carrier(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, chats)
}

// ChatEvents handles GET /api/chat/events?chatId=&limit=.
func (h *Handler) ChatEvents(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = n
	}

	events, err := h.service.ListEvents(requestContext(c), Carrier(c), c.QueryParam("chatId"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"events": events})
}

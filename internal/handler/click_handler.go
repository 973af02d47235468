package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/service"
)

type ClickHandler struct {
	svc service.ClickService
}

func NewClickHandler(svc service.ClickService) *ClickHandler {
	return &ClickHandler{svc: svc}
}

// Record takes the user from the verified session when present, else from the body.
func (h *ClickHandler) Record(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var body struct {
		UserID *string `json:"userId"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	uid := body.UserID
	if sessionUID, _ := currentUser(c); sessionUID != "" {
		uid = &sessionUID
	}
	req := c.Request()
	recorded, err := h.svc.RecordClick(req.Context(), service.ClickInput{
		ProductID: id,
		UserUID:   uid,
		IP:        c.RealIP(),
		UserAgent: req.UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"recorded": recorded})
}

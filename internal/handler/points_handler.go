package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/authz"
	"github.com/shinyyama/goods-backend/internal/service"
)

type PointsHandler struct {
	svc   service.PointsService
	authz *authz.Authorizer
}

func NewPointsHandler(svc service.PointsService, a *authz.Authorizer) *PointsHandler {
	return &PointsHandler{svc: svc, authz: a}
}

type PointsResponse struct {
	AvailablePoints int64 `json:"availablePoints"`
	TotalEarned     int64 `json:"totalEarned"`
	TotalUsed       int64 `json:"totalUsed"`
	TotalExpired    int64 `json:"totalExpired"`
	ExpiringSoon    int64 `json:"expiringSoon"`
}

type LedgerEntryResponse struct {
	ID          uint64  `json:"id"`
	Direction   string  `json:"direction"`
	Amount      int64   `json:"amount"`
	Balance     int64   `json:"balance"`
	Description string  `json:"description"`
	OrderID     *uint64 `json:"orderId,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// owner resolves the :id path user and checks the caller may read it.
func (h *PointsHandler) owner(c echo.Context) (string, bool) {
	uid, role := currentUser(c)
	target := strings.TrimSpace(c.Param("id"))
	if target == "me" {
		target = uid
	}
	if target == uid {
		return target, true
	}
	return target, h.authz != nil && h.authz.Allowed(role, authz.ObjectUserData, authz.ActionUserDataViewAny)
}

func (h *PointsHandler) Get(c echo.Context) error {
	target, ok := h.owner(c)
	if !ok {
		return writeError(c, service.ErrForbidden)
	}
	sum, err := h.svc.Summary(c.Request().Context(), target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, PointsResponse{
		AvailablePoints: sum.AvailablePoints,
		TotalEarned:     sum.TotalEarned,
		TotalUsed:       sum.TotalUsed,
		TotalExpired:    sum.TotalExpired,
		ExpiringSoon:    sum.ExpiringSoon,
	})
}

func (h *PointsHandler) History(c echo.Context) error {
	target, ok := h.owner(c)
	if !ok {
		return writeError(c, service.ErrForbidden)
	}
	limit, valid := queryInt(c, "limit", 50)
	if !valid {
		return badRequest(c, "invalid limit")
	}
	list, err := h.svc.History(c.Request().Context(), target, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]LedgerEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, LedgerEntryResponse{
			ID:          e.ID,
			Direction:   string(e.Direction),
			Amount:      e.Amount,
			Balance:     e.Balance,
			Description: e.Description,
			OrderID:     e.OrderID,
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": out})
}

func (h *PointsHandler) AdminAdjust(c echo.Context) error {
	target := strings.TrimSpace(c.Param("id"))
	var body struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	if err := h.svc.Adjust(ctx, target, body.Amount, body.Description); err != nil {
		return writeError(c, err)
	}
	bal, err := h.svc.CurrentBalance(ctx, target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"availablePoints": bal})
}

func (h *PointsHandler) AdminExpire(c echo.Context) error {
	users, total, err := h.svc.ExpireAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":         users,
		"pointsExpired": total,
	})
}

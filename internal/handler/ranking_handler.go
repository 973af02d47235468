package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/service"
)

type RankingHandler struct {
	svc service.RankingService
}

func NewRankingHandler(svc service.RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

type RankingEntryResponse struct {
	ProductID  uint64 `json:"productId"`
	Rank       int    `json:"rank"`
	SalesCount int64  `json:"salesCount"`
	ClickCount int64  `json:"clickCount"`
}

// Weekly serves GET /rankings/weekly?sellerClass=&limit=&week=YYYY-MM-DD.
func (h *RankingHandler) Weekly(c echo.Context) error {
	class := model.SellerClass(c.QueryParam("sellerClass"))
	if !class.Valid() {
		return badRequest(c, "invalid sellerClass")
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	var week *time.Time
	if raw := c.QueryParam("week"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, h.svc.Location())
		if err != nil {
			return badRequest(c, "week must be YYYY-MM-DD")
		}
		week = &t
	}
	res, err := h.svc.WeeklyRanking(c.Request().Context(), class, week, limit)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]RankingEntryResponse, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, RankingEntryResponse{
			ProductID:  e.ProductID,
			Rank:       e.Rank,
			SalesCount: e.SalesCount,
			ClickCount: e.ClickCount,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RankingHandler) AdminRecompute(c echo.Context) error {
	if err := h.svc.RecomputeAll(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

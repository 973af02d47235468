package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/service"
)

type PriceHandler struct {
	svc service.PriceService
}

func NewPriceHandler(svc service.PriceService) *PriceHandler {
	return &PriceHandler{svc: svc}
}

type PriceTierResponse struct {
	PrintType   string `json:"printType"`
	Size        string `json:"size"`
	MinQuantity int    `json:"minQuantity"`
	MaxQuantity *int   `json:"maxQuantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

func toTierResponses(list []model.PriceTier) []PriceTierResponse {
	out := make([]PriceTierResponse, 0, len(list))
	for _, t := range list {
		out = append(out, PriceTierResponse{
			PrintType:   t.PrintType,
			Size:        t.Size,
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			UnitPrice:   t.UnitPrice,
		})
	}
	return out
}

func (h *PriceHandler) Quote(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	qty, ok := queryInt(c, "qty", 0)
	if !ok {
		return writeError(c, service.ErrInvalidQuantity)
	}
	q, err := h.svc.Quote(c.Request().Context(), id, c.QueryParam("printType"), c.QueryParam("size"), qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"productId": q.ProductID,
		"printType": q.PrintType,
		"size":      q.Size,
		"qty":       q.Quantity,
		"unitPrice": q.UnitPrice,
		"lineTotal": q.LineTotal,
	})
}

func (h *PriceHandler) ListTiers(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	list, err := h.svc.ListTiers(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": toTierResponses(list)})
}

func (h *PriceHandler) ReplaceTiers(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var body struct {
		PrintType string `json:"printType"`
		Size      string `json:"size"`
		Tiers     []struct {
			MinQuantity int   `json:"minQuantity"`
			MaxQuantity *int  `json:"maxQuantity"`
			UnitPrice   int64 `json:"unitPrice"`
		} `json:"tiers"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	in := make([]service.TierInput, 0, len(body.Tiers))
	for _, t := range body.Tiers {
		in = append(in, service.TierInput{MinQuantity: t.MinQuantity, MaxQuantity: t.MaxQuantity, UnitPrice: t.UnitPrice})
	}
	list, err := h.svc.ReplaceTiers(c.Request().Context(), id, body.PrintType, body.Size, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": toTierResponses(list)})
}

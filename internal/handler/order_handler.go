package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/authz"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/service"
)

type OrderHandler struct {
	svc   service.OrderService
	authz *authz.Authorizer
}

func NewOrderHandler(svc service.OrderService, a *authz.Authorizer) *OrderHandler {
	return &OrderHandler{svc: svc, authz: a}
}

type designFileRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data,omitempty"`
	URL         string `json:"url,omitempty"`
}

type orderItemRequest struct {
	ProductID  uint64             `json:"productId"`
	PrintType  string             `json:"printType"`
	Size       string             `json:"size"`
	Qty        int                `json:"qty"`
	CustomText string             `json:"customText,omitempty"`
	DesignFile *designFileRequest `json:"designFile,omitempty"`
}

type createOrderRequest struct {
	Items            []orderItemRequest     `json:"items"`
	ShippingSnapshot model.ShippingSnapshot `json:"shippingSnapshot"`
	Discount         int64                  `json:"discount"`
	ShippingFee      int64                  `json:"shippingFee"`
	PointsUsed       int64                  `json:"pointsUsed"`
}

type OrderItemResponse struct {
	ProductID     uint64 `json:"productId"`
	ProductName   string `json:"productName"`
	PrintType     string `json:"printType"`
	Size          string `json:"size"`
	Qty           int    `json:"qty"`
	UnitPrice     int64  `json:"unitPrice"`
	LineTotal     int64  `json:"lineTotal"`
	CustomText    string `json:"customText,omitempty"`
	DesignFileURL string `json:"designFileUrl,omitempty"`
	HasDesignFile bool   `json:"hasDesignFile"`
}

type OrderResponse struct {
	ID               uint64                 `json:"id"`
	OrderNo          string                 `json:"orderNo"`
	Status           string                 `json:"status"`
	Subtotal         int64                  `json:"subtotal"`
	Discount         int64                  `json:"discount"`
	ShippingFee      int64                  `json:"shippingFee"`
	PointsUsed       int64                  `json:"pointsUsed"`
	FinalAmount      int64                  `json:"finalAmount"`
	PointsEarned     int64                  `json:"pointsEarned"`
	ShippingSnapshot model.ShippingSnapshot `json:"shippingSnapshot"`
	Items            []OrderItemResponse    `json:"items"`
	PaidAt           *string                `json:"paidAt,omitempty"`
	CancelledAt      *string                `json:"cancelledAt,omitempty"`
	CreatedAt        string                 `json:"createdAt"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}

func toOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			PrintType:     it.PrintType,
			Size:          it.Size,
			Qty:           it.Quantity,
			UnitPrice:     it.UnitPrice,
			LineTotal:     it.LineTotal,
			CustomText:    it.CustomText,
			DesignFileURL: it.DesignFileURL,
			HasDesignFile: len(it.DesignFileData) > 0 || it.DesignFileURL != "",
		})
	}
	return OrderResponse{
		ID:               o.ID,
		OrderNo:          o.OrderNo,
		Status:           string(o.Status),
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		ShippingFee:      o.ShippingFee,
		PointsUsed:       o.PointsUsed,
		FinalAmount:      o.FinalAmount,
		PointsEarned:     o.PointsEarned,
		ShippingSnapshot: o.ShippingSnapshot.Data(),
		Items:            items,
		PaidAt:           formatTime(o.PaidAt),
		CancelledAt:      formatTime(o.CancelledAt),
		CreatedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *OrderHandler) Create(c echo.Context) error {
	uid, _ := currentUser(c)
	var body createOrderRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	in := service.CreateOrderInput{
		UserUID:     uid,
		Shipping:    body.ShippingSnapshot,
		Discount:    body.Discount,
		ShippingFee: body.ShippingFee,
		PointsUsed:  body.PointsUsed,
		Items:       make([]service.OrderItemInput, 0, len(body.Items)),
	}
	for _, it := range body.Items {
		item := service.OrderItemInput{
			ProductID:  it.ProductID,
			PrintType:  it.PrintType,
			Size:       it.Size,
			Quantity:   it.Qty,
			CustomText: it.CustomText,
		}
		if f := it.DesignFile; f != nil {
			item.DesignFile = &service.DesignFileInput{Name: f.Name, ContentType: f.ContentType, Data: f.Data, URL: f.URL}
		}
		in.Items = append(in.Items, item)
	}
	o, err := h.svc.CreateOrder(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"orderId":     o.ID,
		"orderNo":     o.OrderNo,
		"finalAmount": o.FinalAmount,
	})
}

func (h *OrderHandler) CompletePayment(c echo.Context) error {
	uid, _ := currentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var body struct {
		PaymentReference string `json:"paymentReference"`
		Amount           *int64 `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if body.Amount == nil {
		return badRequest(c, "amount is required")
	}
	res, err := h.svc.CompletePayment(c.Request().Context(), id, uid, body.PaymentReference, *body.Amount)
	if err != nil {
		// an identical retry of a payment that already went through is answered with its result
		if errors.Is(err, service.ErrAlreadyCompleted) && res != nil && res.PaymentReference == body.PaymentReference {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"pointsEarned":     res.PointsEarned,
				"alreadyCompleted": true,
			})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"pointsEarned": res.PointsEarned})
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid, role := currentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	admin := h.authz != nil && h.authz.Allowed(role, authz.ObjectOrder, authz.ActionOrderViewAny)
	o, err := h.svc.Get(c.Request().Context(), id, uid, admin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid, _ := currentUser(c)
	limit, ok1 := queryInt(c, "limit", 20)
	offset, ok2 := queryInt(c, "offset", 0)
	if !ok1 || !ok2 {
		return badRequest(c, "invalid paging")
	}
	list, total, err := h.svc.ListByUser(c.Request().Context(), uid, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]OrderResponse, 0, len(list))
	for i := range list {
		out = append(out, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": out,
		"total": total,
	})
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	uid, _ := currentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	o, err := h.svc.Cancel(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) AdminCancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	o, err := h.svc.AdminCancel(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

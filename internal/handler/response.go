package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/goods-backend/internal/logger"
	"github.com/shinyyama/goods-backend/internal/service"
	"go.uber.org/zap"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrUnknownVariant, http.StatusBadRequest, "unknown_variant"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrInvalidTiers, http.StatusBadRequest, "invalid_tiers"},
	{service.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{service.ErrAmountMismatch, http.StatusConflict, "amount_mismatch"},
	{service.ErrOrderNotPending, http.StatusConflict, "order_not_pending"},
	{service.ErrRankingInProgress, http.StatusConflict, "ranking_in_progress"},
	{service.ErrInsufficientPoints, http.StatusUnprocessableEntity, "insufficient_points"},
	{service.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// writeError maps service sentinels onto HTTP statuses. Anything unrecognised is a 500
// and its detail stays in the log.
func writeError(c echo.Context, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			msg := err.Error()
			if m.status >= http.StatusInternalServerError {
				logger.FromContext(c.Request().Context()).Error("request failed", zap.Error(err))
				msg = "service temporarily unavailable"
			}
			return c.JSON(m.status, NewErrorResponse(m.code, msg))
		}
	}
	logger.FromContext(c.Request().Context()).Error("unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal", "internal error"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

func currentUser(c echo.Context) (uid, role string) {
	uid, _ = c.Get("uid").(string)
	role, _ = c.Get("role").(string)
	return uid, role
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

package service

import (
	"errors"
	"fmt"

	"github.com/shinyyama/goods-backend/internal/pricing"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownVariant     = pricing.ErrUnknownVariant
	ErrInvalidQuantity    = pricing.ErrInvalidQuantity
	ErrInvalidTiers       = pricing.ErrInvalidTiers
	ErrAlreadyCompleted   = errors.New("already_completed")
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrOrderNotPending    = errors.New("order_not_pending")
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrRankingInProgress  = errors.New("ranking_in_progress")
	ErrUnavailable        = errors.New("unavailable")
)

var domainErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrInvalidInput,
	ErrUnknownVariant,
	ErrInvalidQuantity,
	ErrInvalidTiers,
	ErrAlreadyCompleted,
	ErrAmountMismatch,
	ErrOrderNotPending,
	ErrInsufficientPoints,
	ErrRankingInProgress,
	ErrUnavailable,
}

// txError keeps domain errors as they are and reports every other failure of a
// rolled-back write as ErrUnavailable.
func txError(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// readError maps a failed lookup: missing rows become ErrNotFound, storage failures ErrUnavailable.
func readError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return txError(err)
}

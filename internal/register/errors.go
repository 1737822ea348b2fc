package register

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/pricing"
)

var (
	// ErrEmptyQuery is returned when no product id or name was entered.
	ErrEmptyQuery = errors.New("please enter a product id or name")
	// ErrEmptyQuantity is returned when no quantity was entered.
	ErrEmptyQuantity = errors.New("please enter a quantity")
	// ErrInvalidQuantity is returned for non-numeric or non-positive quantities.
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	// ErrEmptyCart is returned when paying for an empty cart.
	ErrEmptyCart = errors.New("cart is empty, please add items first")
	// ErrEmptyInput is returned when no payment amount was entered.
	ErrEmptyInput = errors.New("please enter the amount paid")
	// ErrInvalidAmount is returned when the payment amount is not a number.
	ErrInvalidAmount = errors.New("invalid amount paid, please enter a number")
	// ErrInsufficientPayment matches *InsufficientPaymentError.
	ErrInsufficientPayment = errors.New("amount paid is less than total bill")
)

// InsufficientPaymentError carries the amounts of a rejected payment.
type InsufficientPaymentError struct {
	Paid  decimal.Decimal
	Total decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("amount paid (%s) is less than total bill (%s)", pricing.Format(e.Paid), pricing.Format(e.Total))
}

// Is lets errors.Is match ErrInsufficientPayment.
func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}

// Kind groups failures for presentation.
type Kind string

const (
	KindNone            Kind = ""
	KindInputValidation Kind = "input_validation"
	KindResolution      Kind = "resolution_failure"
	KindPayment         Kind = "payment_failure"
	KindInternal        Kind = "internal"
)

// KindOf classifies err. Every kind except KindInternal is recoverable by the
// clerk re-entering input.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyQuery),
		errors.Is(err, ErrEmptyQuantity),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrInvalidAmount):
		return KindInputValidation
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrAmbiguous):
		return KindResolution
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInsufficientPayment):
		return KindPayment
	default:
		return KindInternal
	}
}

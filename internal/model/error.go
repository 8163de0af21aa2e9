package model

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies failures for transport mapping.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindBusinessRule ErrorKind = "business_rule"
	KindPersistence  ErrorKind = "persistence"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeNotCancellable    = "NOT_CANCELLABLE"
	ErrCodeIllegalTransition = "ILLEGAL_TRANSITION"
	ErrCodeNotPayable        = "NOT_PAYABLE"
	ErrCodeInvalidPromoCode  = "INVALID_PROMO_CODE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business failure with a machine-readable code.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors carrying details still compare
// equal to the sentinel they were derived from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound   = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrInsufficientStock = NewDomainError(KindBusinessRule, ErrCodeInsufficientStock, "Insufficient stock")
	ErrNotCancellable    = NewDomainError(KindBusinessRule, ErrCodeNotCancellable, "Order cannot be cancelled")
	ErrIllegalTransition = NewDomainError(KindBusinessRule, ErrCodeIllegalTransition, "Order status transition is not allowed")
	ErrNotPayable        = NewDomainError(KindBusinessRule, ErrCodeNotPayable, "Order is not awaiting payment")
	ErrInvalidPromoCode  = NewDomainError(KindBusinessRule, ErrCodeInvalidPromoCode, "Promo code is not valid")
)

// NewProductNotFoundError identifies the product id that could not be resolved.
func NewProductNotFoundError(productID int64) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    ErrCodeProductNotFound,
		Message: fmt.Sprintf("Product not found: %d", productID),
		Details: map[string]any{"product_id": productID},
	}
}

// NewInsufficientStockError identifies the product that cannot cover the request.
func NewInsufficientStockError(productID int64, name string, requested, available int) *DomainError {
	return &DomainError{
		Kind:    KindBusinessRule,
		Code:    ErrCodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s", name),
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewIllegalTransitionError names both ends of a rejected status change.
func NewIllegalTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Kind:    KindBusinessRule,
		Code:    ErrCodeIllegalTransition,
		Message: fmt.Sprintf("Order cannot move from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

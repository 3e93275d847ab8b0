// internal/domain/pharmacy/result.go
package pharmacy

import (
	"errors"
	"fmt"
)

// DispenseOutcome tags the business result of a dispense attempt. Expected
// conditions are returned as data, never as errors, so callers must handle
// every case explicitly.
type DispenseOutcome string

const (
	OutcomeDispensed         DispenseOutcome = "dispensed"
	OutcomeNoStock           DispenseOutcome = "no_stock"
	OutcomeInsufficientStock DispenseOutcome = "insufficient_stock"
	OutcomeConflict          DispenseOutcome = "conflict"
	OutcomeItemNotFound      DispenseOutcome = "item_not_found"
)

// DispenseResult is the tagged result of a single-item dispense. Record is
// set only when Outcome is OutcomeDispensed; AvailableQty accompanies
// OutcomeInsufficientStock.
type DispenseResult struct {
	Outcome      DispenseOutcome `json:"outcome"`
	Record       *DispenseRecord `json:"record,omitempty"`
	RequestedQty int             `json:"requested_qty"`
	AvailableQty int             `json:"available_qty,omitempty"`
}

// Dispensed reports whether the dispense succeeded.
func (r *DispenseResult) Dispensed() bool {
	return r.Outcome == OutcomeDispensed
}

// Retryable reports whether the caller may retry the whole operation.
func (r *DispenseResult) Retryable() bool {
	return r.Outcome == OutcomeConflict
}

// RequestedItem is one line of a multi-drug dispense request.
type RequestedItem struct {
	DrugID   uint `json:"drug_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// ItemResult is the per-drug outcome inside an orchestrated dispense.
type ItemResult struct {
	DrugID       uint            `json:"drug_id"`
	Outcome      DispenseOutcome `json:"outcome"`
	RequestedQty int             `json:"requested_qty"`
	AvailableQty int             `json:"available_qty,omitempty"`
}

// OrchestratedResult is the all-or-nothing result of a multi-drug dispense.
// On any failure no stock is touched and Record is nil; Items always carries
// one entry per requested drug.
type OrchestratedResult struct {
	Outcome     DispenseOutcome `json:"outcome"`
	Items       []ItemResult    `json:"items"`
	Record      *DispenseRecord `json:"record,omitempty"`
	TotalAmount int64           `json:"total_amount,omitempty"`
}

// Dispensed reports whether every requested drug was dispensed.
func (r *OrchestratedResult) Dispensed() bool {
	return r.Outcome == OutcomeDispensed
}

// Validation errors: caller mistakes, not business outcomes.
var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrNoItems           = errors.New("at least one item is required")
	ErrDuplicateDrug     = errors.New("duplicate drug in request")
	ErrInvalidWindow     = errors.New("scan window must be positive")
)

// Repository sentinel errors.
var (
	ErrItemNotFound   = errors.New("inventory item not found")
	ErrRecordNotFound = errors.New("dispense record not found")
)

// ShortfallError reports that eligible batches exist but their total falls
// short of the request. It is resolved locally by the coordinator and never
// escapes as an error to callers.
type ShortfallError struct {
	Requested int
	Available int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// Shortfall returns the quantity by which available stock misses the request.
func (e *ShortfallError) Shortfall() int {
	return e.Requested - e.Available
}

// IsValidationError reports whether err is a caller error rather than a
// business outcome or infrastructure failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrDuplicateDrug) ||
		errors.Is(err, ErrInvalidWindow)
}

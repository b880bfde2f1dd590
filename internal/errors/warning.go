package errors

import "fmt"

// WarningType identifies a non-fatal condition.
type WarningType string

const (
	// WarnCoercion is emitted when a column is converted to string
	WarnCoercion WarningType = "COLUMN_COERCED"

	// WarnGrainChanged is emitted when grouping collapsed input rows
	WarnGrainChanged WarningType = "GRAIN_CHANGED"

	// WarnShadowed is emitted when a calculation name is hidden by a metric
	WarnShadowed WarningType = "CALCULATION_SHADOWED"
)

// Warning is a non-fatal condition surfaced to the caller. Execution continues
// with whatever adjustment the warning describes.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

// String implements fmt.Stringer
func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Type, w.Message)
}

// Coerced creates a coercion warning for the named column
func Coerced(column, role string) Warning {
	msg := fmt.Sprintf("the type of column %s has been changed to string", column)
	if role != "" {
		msg = fmt.Sprintf("the type of column %s in %s has been changed to string", column, role)
	}
	return Warning{Type: WarnCoercion, Message: msg}
}

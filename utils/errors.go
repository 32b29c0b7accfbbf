package utils

import (
	"fmt"
)

// Error taxonomy shared by every package of the solver. All four are
// deterministic failures: nothing here is retried, callers match them with
// errors.As and abort the run.

// ConfigurationError reports invalid basis or space parameters.
type ConfigurationError struct {
	Op     string
	Reason string
}

func NewConfigurationError(op, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Op, e.Reason)
}

// SingularMetricError reports a coordinate map whose metric determinant
// vanishes at a point the space needs.
type SingularMetricError struct {
	Map   string
	Point [2]float64
	Det   float64
}

func (e *SingularMetricError) Error() string {
	return fmt.Sprintf("metric: map %q is singular at (%.6g, %.6g), det = %.3g",
		e.Map, e.Point[0], e.Point[1], e.Det)
}

// IncompatibleOperatorError reports operators combined across mismatched
// spaces or roles, or operators needing metric derivatives the map cannot
// provide.
type IncompatibleOperatorError struct {
	Reason string
}

func NewIncompatibleOperatorError(format string, args ...interface{}) *IncompatibleOperatorError {
	return &IncompatibleOperatorError{Reason: fmt.Sprintf(format, args...)}
}

func (e *IncompatibleOperatorError) Error() string {
	return "operator: " + e.Reason
}

// SingularSystemError reports a wavenumber block without a unique solution.
type SingularSystemError struct {
	Wavenumber int
	Cond       float64
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("solver: block for wavenumber %d is singular (cond = %.3g)",
		e.Wavenumber, e.Cond)
}

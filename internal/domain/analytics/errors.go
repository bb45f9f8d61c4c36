package analytics

import "github.com/GrupoEuro/SmartEC-sub000/internal/domain/shared"

// Analytics errors
var (
	// ErrUpstreamFetch wraps record store failures.
	ErrUpstreamFetch = shared.NewDomainError("UPSTREAM_FETCH_FAILED", "Record store query failed")
	// ErrInvalidRange is returned for empty or inverted date ranges.
	ErrInvalidRange = shared.NewDomainError("INVALID_RANGE", "Date range end must be after start")
	// ErrInvalidParameter is returned for out-of-range numeric arguments.
	ErrInvalidParameter = shared.NewDomainError("INVALID_PARAMETER", "Invalid report parameter")
	// ErrDegenerateInput marks inputs too small to fit a model. Reports turn it
	// into zero-valued results.
	ErrDegenerateInput = shared.NewDomainError("DEGENERATE_INPUT", "Not enough data points")
)

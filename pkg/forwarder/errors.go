package forwarder

import (
	"errors"

	"github.com/RestinGreen/fee-forwarder/pkg/governance"
	"github.com/RestinGreen/fee-forwarder/pkg/memory"
)

// Every failure returned by the forwarder wraps exactly one of the errors of
// the first block, plus the cause reported by the collaborator.
var (
	ErrRouteResolutionFailed = errors.New("route resolution failed")
	ErrSwapFailed            = errors.New("swap failed")
	ErrInsufficientOutput    = errors.New("insufficient output")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrAllowanceExceeded     = errors.New("allowance exceeded")
	ErrInvalidRequest        = errors.New("invalid request")
)

var (
	ErrNoRouteConfigured = memory.ErrNoRouteConfigured
	ErrInvalidRoute      = memory.ErrInvalidRoute
	ErrUnauthorized      = governance.ErrUnauthorized
)

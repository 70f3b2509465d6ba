package contract

import (
	"errors"
	"fmt"

	apperrors "github.com/kbukum/apicontract/errors"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrDuplicateContract    = errors.New("contract: duplicate contract")
	ErrUnsupportedMethod    = errors.New("contract: unsupported method")
	ErrMissingPathParameter = errors.New("contract: missing path parameter")
)

// ErrNoRegistry is returned by an API that was not created with NewAPI.
var ErrNoRegistry = errors.New("contract: API has no registry, use NewAPI")

// DuplicateContractError is returned when a method and path pair is declared
// twice on the same Registry. The caller must change the method or the path.
type DuplicateContractError struct {
	Method Method
	Path   string
}

func (e *DuplicateContractError) Error() string {
	return fmt.Sprintf("contract: there is a defined contract for %s and %s already", e.Method, e.Path)
}

// Is matches ErrDuplicateContract.
func (e *DuplicateContractError) Is(target error) bool {
	return target == ErrDuplicateContract
}

// Unwrap exposes the application error for the duplicate.
func (e *DuplicateContractError) Unwrap() error {
	return apperrors.AlreadyExists("contract").
		WithDetail("method", string(e.Method)).
		WithDetail("path", e.Path)
}

// UnsupportedMethodError is returned when a descriptor carries a method the
// factory cannot dispatch. It means the descriptor was built outside the
// API entry points.
type UnsupportedMethodError struct {
	Method Method
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("contract: unexpected http method %q, only GET | DELETE | PATCH | POST | PUT are supported", string(e.Method))
}

// Is matches ErrUnsupportedMethod.
func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}

// Unwrap exposes the application error for the method.
func (e *UnsupportedMethodError) Unwrap() error {
	return apperrors.UnsupportedMethod(string(e.Method))
}

// MissingPathParameterError is returned by strict factories when a path
// placeholder has no value.
type MissingPathParameterError struct {
	Path string
	Name string
}

func (e *MissingPathParameterError) Error() string {
	return fmt.Sprintf("contract: no value for path parameter %q in %s", e.Name, e.Path)
}

// Is matches ErrMissingPathParameter.
func (e *MissingPathParameterError) Is(target error) bool {
	return target == ErrMissingPathParameter
}

// Unwrap exposes the application error for the missing value.
func (e *MissingPathParameterError) Unwrap() error {
	return apperrors.MissingField(e.Name).WithDetail("path", e.Path)
}

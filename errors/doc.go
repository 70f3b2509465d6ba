// Package errors defines AppError, the coded error carried through contract
// declaration, validation and HTTP dispatch. Codes map to HTTP statuses in
// both directions and decide retryability.
package errors

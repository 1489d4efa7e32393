package repositories

import "fmt"

// CatalogErrorCode enumerates failure reasons for catalog store operations.
type CatalogErrorCode string

const (
	// CatalogErrorNotFound indicates the record does not exist in the catalog.
	CatalogErrorNotFound CatalogErrorCode = "catalog_not_found"
	// CatalogErrorConflict indicates a record with the same id already exists.
	CatalogErrorConflict CatalogErrorCode = "catalog_conflict"
	// CatalogErrorUnavailable indicates the catalog store could not serve the request.
	CatalogErrorUnavailable CatalogErrorCode = "catalog_unavailable"
	// CatalogErrorInvalidID indicates the store rejected the id shape.
	CatalogErrorInvalidID CatalogErrorCode = "catalog_invalid_id"
)

// CatalogError implements RepositoryError for stores that do not carry their own error type.
type CatalogError struct {
	Op   string
	Code CatalogErrorCode
	Err  error
}

var _ RepositoryError = (*CatalogError)(nil)

// NewCatalogError constructs a typed catalog error.
func NewCatalogError(op string, code CatalogErrorCode, err error) *CatalogError {
	return &CatalogError{Op: op, Code: code, Err: err}
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Code)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes the underlying error, if any.
func (e *CatalogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the record is absent. Rejected id shapes count as absent.
func (e *CatalogError) IsNotFound() bool {
	return e != nil && (e.Code == CatalogErrorNotFound || e.Code == CatalogErrorInvalidID)
}

// IsConflict reports whether the write collided with an existing record.
func (e *CatalogError) IsConflict() bool { return e != nil && e.Code == CatalogErrorConflict }

// IsUnavailable reports whether the store itself failed.
func (e *CatalogError) IsUnavailable() bool { return e != nil && e.Code == CatalogErrorUnavailable }

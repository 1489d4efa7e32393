package services

import (
	"errors"

	"github.com/brightcart/api/internal/repositories"
)

var (
	// ErrProductNotFound indicates no catalog holds the requested id.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogUnavailable indicates every catalog consulted for a request failed.
	ErrCatalogUnavailable = errors.New("catalog: catalogs unavailable")
	// ErrUnknownDomain indicates the requested catalog domain is not registered.
	ErrUnknownDomain = errors.New("catalog: unknown catalog domain")
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a catalog mutation.
	ErrCatalogInvalidInput = errors.New("catalog admin: invalid input")
	// ErrProductConflict indicates the generated id already exists in the destination catalog.
	ErrProductConflict = errors.New("catalog admin: product already exists")
)

func isRepositoryNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isRepositoryConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

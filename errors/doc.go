/*
Package errors provides semantic error types for the resourcestore library.

Every backend reports failures through the same small taxonomy so callers can
branch on meaning rather than on storage specifics:

	var (
	    ErrNotFound     = errors.New("resource not found")
	    ErrConflict     = errors.New("conflicting identifier")
	    ErrInvalidInput = errors.New("invalid input")
	    ErrUnknownField = errors.New("unknown field")
	    ErrNotSupported = errors.New("operation not supported")
	    ErrNoDefinition = errors.New("no definition found for resource")
	)

Usage:

	item, err := store.Retrieve(ctx, int64(10), nil, nil)
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("todo %d does not exist", 10)
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotFoundError("todos", 10)
	err := errors.NewConflictError("todos", 10, "identifier repeated in batch")
	err := errors.NewUnknownFieldError("todos", "colour")

An UnknownFieldError also matches ErrInvalidInput, so callers that only care
about "bad request" need a single check.
*/
package errors

package pagination

import (
	"errors"
	"fmt"
)

var (
	ErrClosed      = errors.New("list closed")
	ErrInvalidPage = errors.New("invalid page number")
)

// FetchError is returned when a page fetch fails. The collection and the
// pagination position are left as they were.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

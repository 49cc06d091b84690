package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "stockengine/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// リポジトリのエラーをHTTPErrorに寄せる
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repo.ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, repo.ErrVariantNotFound):
		return NewHTTPError(http.StatusNotFound, "variant not found")
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrInsufficientStock):
		return NewHTTPError(http.StatusConflict, "out of stock")
	case errors.Is(err, repo.ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	case errors.Is(err, repo.ErrConflict), errors.Is(err, repo.ErrDuplicate):
		return NewHTTPError(http.StatusConflict, "conflict")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

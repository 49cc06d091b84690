package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")

	// 在庫不足（減算しなかった）
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")

	// 条件付き更新が他の更新に負けた
	ErrConflict = errors.New("conflict")
	// 同じキーがすでにある
	ErrDuplicate = errors.New("duplicate")
)

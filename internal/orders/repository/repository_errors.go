package repository

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderLineNotFound = errors.New("order line not found")
)

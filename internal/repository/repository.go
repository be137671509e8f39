package repository

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrLimitReached     = errors.New("usage limit reached")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	ErrDuplicate        = errors.New("record already exists")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

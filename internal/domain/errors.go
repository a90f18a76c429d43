package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrDuplicate        = errors.New("already exists")
	ErrInUse            = errors.New("referenced by transactions")
	ErrInvalidReference = errors.New("invalid reference")
	ErrTypeMismatch     = errors.New("category type does not match transaction type")
)

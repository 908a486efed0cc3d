package accountindex

import "errors"

var ErrInvalidInput = errors.New("account is required")

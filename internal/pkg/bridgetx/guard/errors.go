package guard

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every refusal of the guard.
var ErrRejected = errors.New("write rejected")

var (
	ErrEmptyKey        = fmt.Errorf("%w: key is empty", ErrRejected)
	ErrUnknownStatus   = fmt.Errorf("%w: status is not allowed", ErrRejected)
	ErrDuplicateStatus = fmt.Errorf("%w: record already has this status", ErrRejected)
	ErrFinalizedRewind = fmt.Errorf("%w: finalized record can not go back to initiated", ErrRejected)
)

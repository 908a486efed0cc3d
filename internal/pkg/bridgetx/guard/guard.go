package guard

import (
	"fmt"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/samber/lo"
)

// Policy selects the deployment profile of the guard.
type Policy struct {
	// AllowedStatuses is the set of statuses a write may carry.
	AllowedStatuses []record.Status

	// BlockFinalizedRewind refuses finalized -> initiated transitions.
	BlockFinalizedRewind bool
}

// DefaultPolicy accepts all four statuses and keeps finalized records from being rewound.
func DefaultPolicy() Policy {
	return Policy{
		AllowedStatuses:      record.Statuses(),
		BlockFinalizedRewind: true,
	}
}

// LenientPolicy is the three-status profile without the rewind block.
func LenientPolicy() Policy {
	return Policy{
		AllowedStatuses:      []record.Status{record.StatusInitiated, record.StatusError, record.StatusFinalized},
		BlockFinalizedRewind: false,
	}
}

// Guard decides whether a record may overwrite the value stored under its key.
//
// Any status may move to any other allowed status, forward or backward.
// Writing the status already stored is refused, and so is rewinding a
// finalized record to initiated when the policy says so.
type Guard struct {
	allowed map[record.Status]struct{}
	policy  Policy
}

func New(policy Policy) (*Guard, error) {
	if len(policy.AllowedStatuses) == 0 {
		return nil, fmt.Errorf("guard policy has no allowed statuses")
	}

	for _, status := range policy.AllowedStatuses {
		if !lo.Contains(record.Statuses(), status) {
			return nil, fmt.Errorf("unknown status %q in guard policy", status)
		}
	}

	allowed := lo.Associate(policy.AllowedStatuses, func(s record.Status) (record.Status, struct{}) {
		return s, struct{}{}
	})

	return &Guard{
		allowed: allowed,
		policy:  policy,
	}, nil
}

func (g *Guard) Policy() Policy {
	return g.policy
}

// CheckRequest validates what can be judged without the stored value.
func (g *Guard) CheckRequest(key string, requested record.Status) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, ok := g.allowed[requested]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, requested)
	}

	return nil
}

// CheckTransition validates a move from the stored status to the requested one.
// exists is false when nothing is stored under the key.
func (g *Guard) CheckTransition(exists bool, existing, requested record.Status) error {
	if !exists {
		return nil
	}

	if existing == requested {
		return fmt.Errorf("%w: %q", ErrDuplicateStatus, requested)
	}

	if g.policy.BlockFinalizedRewind && existing == record.StatusFinalized && requested == record.StatusInitiated {
		return ErrFinalizedRewind
	}

	return nil
}

// Check runs the whole decision table.
func (g *Guard) Check(key string, exists bool, existing, requested record.Status) error {
	if err := g.CheckRequest(key, requested); err != nil {
		return err
	}

	return g.CheckTransition(exists, existing, requested)
}

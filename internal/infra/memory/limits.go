package memory

import "context"

// AudienceLimiter is a fixed-cap stand-in for the billing collaborator. A
// non-positive Max admits everyone.
type AudienceLimiter struct {
	Max int
}

func (l AudienceLimiter) CanAdmit(_ context.Context, _, _ string, currentCount int) (bool, error) {
	if l.Max <= 0 {
		return true, nil
	}
	return currentCount <= l.Max, nil
}

package bastion

import "context"

// Cache provides caching for resolved effective permission sets.
type Cache interface {
	// Get returns a cached effective set for a user, if available.
	Get(ctx context.Context, userID string) (*EffectiveSet, bool)

	// Set stores an effective set for a user.
	Set(ctx context.Context, userID string, set *EffectiveSet)

	// InvalidateUser removes the cached set for one user.
	InvalidateUser(ctx context.Context, userID string)

	// InvalidateAll removes every cached set. Called after mutations that
	// can affect an unknown population of users, such as editing a
	// role's grants.
	InvalidateAll(ctx context.Context)
}

package bastion

import "time"

// Config holds configuration for the Bastion engine.
type Config struct {
	// SuperuserRole is the role name whose holders bypass permission
	// checks. Defaults to "superuser".
	SuperuserRole string `json:"superuser_role,omitempty"`

	// CacheTTL is the time-to-live for cached effective permission sets.
	// Zero means resolved sets are not cached.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// AuditBuffer is the capacity of the async audit queue. Entries are
	// dropped with a warning once the queue is full. Defaults to 256.
	AuditBuffer int `json:"audit_buffer,omitempty"`

	// DefaultPageSize is the list page size when the caller passes none.
	// Defaults to 50.
	DefaultPageSize int `json:"default_page_size,omitempty"`

	// MaxPageSize caps the list page size. Defaults to 1000.
	MaxPageSize int `json:"max_page_size,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SuperuserRole:   "superuser",
		AuditBuffer:     256,
		DefaultPageSize: 50,
		MaxPageSize:     1000,
	}
}

func (c Config) pageLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultPageSize
	}
	if limit > c.MaxPageSize {
		return c.MaxPageSize
	}
	return limit
}

package permission

import "time"

// Role is the session-level role. Roles form a strict hierarchy; a higher
// role satisfies any requirement of a lower one.
type Role string

const (
	// RoleUser is an exported constant used by role checks.
	RoleUser Role = "user"
	// RoleAdmin is an exported constant used by role checks.
	RoleAdmin Role = "admin"
	// RoleSysadmin is an exported constant used by role checks.
	RoleSysadmin Role = "sysadmin"
)

// Action is one of the four per-resource capabilities.
type Action string

const (
	// ActionCreate is an exported constant used by capability checks.
	ActionCreate Action = "create"
	// ActionRead is an exported constant used by capability checks.
	ActionRead Action = "read"
	// ActionUpdate is an exported constant used by capability checks.
	ActionUpdate Action = "update"
	// ActionDelete is an exported constant used by capability checks.
	ActionDelete Action = "delete"
)

var roleLevels = map[Role]int{
	RoleUser:     1,
	RoleAdmin:    2,
	RoleSysadmin: 3,
}

// Level returns the hierarchy level of a role, or 0 when the role is
// unknown. Unknown roles never satisfy any requirement.
func Level(r Role) int {
	return roleLevels[r]
}

// HasRole reports whether role satisfies required through the hierarchy
// user < admin < sysadmin. Unknown roles on either side deny.
func HasRole(role, required Role) bool {
	rl, ql := Level(role), Level(required)
	return rl > 0 && ql > 0 && rl >= ql
}

// Record grants per-resource capabilities, optionally time-bounded. Role
// checks and resource records are independent axes: a record never widens
// or narrows what HasRole reports.
type Record struct {
	Resource  string     `json:"resource"`
	Create    bool       `json:"create"`
	Read      bool       `json:"read"`
	Update    bool       `json:"update"`
	Delete    bool       `json:"delete"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the record's time bound has passed. Records
// without a bound never expire.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Allows reports whether the record grants the action, ignoring expiry.
func (r Record) Allows(a Action) bool {
	switch a {
	case ActionCreate:
		return r.Create
	case ActionRead:
		return r.Read
	case ActionUpdate:
		return r.Update
	case ActionDelete:
		return r.Delete
	}
	return false
}

// Set is the per-resource permission table attached to a session, keyed by
// resource name.
type Set map[string]Record

// Allowed evaluates resource/action against the set at the given instant.
// Default-deny: an absent record, an absent flag, and an expired record all
// deny — an expired record denies even when its flag is set.
func (s Set) Allowed(resource string, action Action, now time.Time) bool {
	record, ok := s[resource]
	if !ok {
		return false
	}
	if record.Expired(now) {
		return false
	}
	return record.Allows(action)
}

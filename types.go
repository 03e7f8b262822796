package authclient

import (
	"io"
	"time"

	"github.com/kynetiq/authclient/autherr"
	internalaudit "github.com/kynetiq/authclient/internal/audit"
	"github.com/kynetiq/authclient/permission"
)

// State is the session controller's lifecycle state.
type State uint8

const (
	// StateUnauthenticated is the initial state and the landing state of
	// every failed login or restore.
	StateUnauthenticated State = iota
	// StateAuthenticating covers an in-flight login.
	StateAuthenticating
	// StateAuthenticated means a Session is present.
	StateAuthenticated
	// StateRenewalPending covers an in-flight credential renewal while the
	// session stays usable.
	StateRenewalPending
	// StateLoggedOut is reached by logout or unrecoverable auth failure.
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRenewalPending:
		return "renewal_pending"
	case StateLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// Session is the in-memory user session hydrated from the auth service.
// It is never persisted verbatim and is destroyed on logout or
// unrecoverable failure.
type Session struct {
	UserID      string
	Email       string
	Role        permission.Role
	Active      bool
	TOTPEnabled bool
	Permissions permission.Set
}

// HasRole reports whether the session's role satisfies required through
// the hierarchy user < admin < sysadmin. A nil session denies.
func (s *Session) HasRole(required permission.Role) bool {
	if s == nil {
		return false
	}
	return permission.HasRole(s.Role, required)
}

// Can reports whether the session's per-resource permission table grants
// the action right now. Default-deny; expired records deny. Independent of
// HasRole — the two are separate axes.
func (s *Session) Can(resource string, action permission.Action) bool {
	if s == nil {
		return false
	}
	return s.Permissions.Allowed(resource, action, time.Now())
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Permissions != nil {
		c.Permissions = make(permission.Set, len(s.Permissions))
		for k, v := range s.Permissions {
			c.Permissions[k] = v
		}
	}
	return &c
}

// Snapshot is the observable session state consumed by UI surfaces.
type Snapshot struct {
	User          *Session
	State         State
	Authenticated bool
	Loading       bool
	Err           *AuthError
}

// Enrollment is the transient second-factor enrollment material. It is
// held only for the duration of the enrollment flow and never persisted by
// this subsystem.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// AuthError is the classified failure surfaced to callers.
//
//	See package autherr for the taxonomy.
type AuthError = autherr.Error

// ErrorCode identifies a classified authentication failure.
type ErrorCode = autherr.Code

// Wire payloads consumed from the auth service.

type userPayload struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	IsActive    bool                `json:"is_active"`
	TOTPEnabled bool                `json:"totp_enabled"`
	Permissions []permissionPayload `json:"permissions"`
}

type permissionPayload struct {
	Resource  string     `json:"resource"`
	Create    bool       `json:"create"`
	Read      bool       `json:"read"`
	Update    bool       `json:"update"`
	Delete    bool       `json:"delete"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (u *userPayload) session() *Session {
	s := &Session{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        permission.Role(u.Role),
		Active:      u.IsActive,
		TOTPEnabled: u.TOTPEnabled,
		Permissions: make(permission.Set, len(u.Permissions)),
	}
	for _, p := range u.Permissions {
		s.Permissions[p.Resource] = permission.Record{
			Resource:  p.Resource,
			Create:    p.Create,
			Read:      p.Read,
			Update:    p.Update,
			Delete:    p.Delete,
			ExpiresAt: p.ExpiresAt,
		}
	}
	return s
}

// AuditEvent is a structured audit record emitted by the controller.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the controller's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

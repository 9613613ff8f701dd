package model

import "time"

// Roles stored in the users.role column and carried in the JWT "role"
// claim.  ADMIN is the elevated role: it may manage tables and act on
// bookings it does not own.  GUEST may only book tables and manage its
// own bookings.
const (
	RoleAdmin = "ADMIN"
	RoleGuest = "GUEST"
)

// User represents an application user record as stored in the `users`
// table.  Handlers define separate response types with JSON tags; this
// struct is used by the repository and auth layers only.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or GUEST.
//  IsActive     – whether the account is active.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Actor is the identity attached to an authenticated request, extracted
// from the access token by the JWT middleware.  The booking policy
// consults it to decide who may extend or cancel a booking.
type Actor struct {
	ID   uint64
	Role string
}

// Elevated reports whether the actor holds the elevated role.
func (a Actor) Elevated() bool { return a.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored; the raw token goes back to
// the client once and is never persisted.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – creation timestamp.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

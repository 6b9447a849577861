package model

import "time"

// Profile is the mutable per-user record backing the portal UI.  It is
// keyed by the user's identity and reconciled on every successful
// sign-in: name and company may be defaulted from identity metadata,
// the client identifier is generated once and then preserved, and the
// admin flag is only ever read from the stored row — no code path in
// this repository writes IsAdmin from client-supplied data.
//
// Fields:
//  UserID    – identity of the owning user (primary key).
//  FullName  – display name shown across the portal.
//  Email     – mirrored from the identity for convenience.
//  Company   – free-form company name.
//  ClientID  – tenant identifier grouping requests/assets by client org.
//  IsAdmin   – server-assigned admin flag; read-only for clients.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Profile struct {
	UserID    uint64    // profiles.user_id
	FullName  string    // profiles.full_name
	Email     string    // profiles.email
	Company   string    // profiles.company
	ClientID  string    // profiles.client_id (UUID)
	IsAdmin   bool      // profiles.is_admin
	CreatedAt time.Time // profiles.created_at
	UpdatedAt time.Time // profiles.updated_at
}

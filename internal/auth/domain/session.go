package domain

import "time"

// Session is the stored form of a login session. The raw token is never
// stored; TokenHash is its SHA-256 fingerprint.
type Session struct {
	TokenHash    string
	Username     string
	Role         Role // snapshot taken at login
	UserAgent    string
	RemoteAddr   string
	CreatedAt    time.Time
	LastActivity time.Time
}

// ClientMeta describes the client a session was issued to.
type ClientMeta struct {
	UserAgent  string
	RemoteAddr string
}

// SessionInfo is what a successful validation returns to callers.
type SessionInfo struct {
	Username     string
	Role         Role
	UserAgent    string
	RemoteAddr   string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

package model

import "time"

// Folder groups documents. ParentID exists for hierarchy but folders are
// currently treated as root-level.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f Folder) Identity() string { return f.ID }

// AuditAction enumerates the events recorded in the audit trail.
type AuditAction string

const (
	AuditCreated    AuditAction = "Created"
	AuditUpdated    AuditAction = "Updated"
	AuditDeleted    AuditAction = "Deleted"
	AuditShared     AuditAction = "Shared"
	AuditDownloaded AuditAction = "Downloaded"
)

// AuditLog is an append-only event. DocName is captured at event time.
type AuditLog struct {
	ID        string      `json:"id"`
	DocID     string      `json:"docId"`
	DocName   string      `json:"docName"`
	Action    AuditAction `json:"action"`
	User      string      `json:"user"`
	Timestamp time.Time   `json:"timestamp"`
}

func (l AuditLog) Identity() string { return l.ID }

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

type UserStatus string

const (
	UserActive      UserStatus = "Active"
	UserDeactivated UserStatus = "Deactivated"
)

// User is an account of the document system. Email is the login key.
// Only a bcrypt hash of the password is ever stored.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Avatar       string     `json:"avatar"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
}

func (u User) Identity() string { return u.ID }

// Active reports whether the account may hold a session.
func (u User) Active() bool { return u.Status == UserActive }

// Public returns the user without credential material.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

package models

import "time"

// Permission is the access level a share grant gives to its target user.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// ParsePermission returns the permission named by value, or false if value
// is not one of view and edit.
func ParsePermission(value string) (Permission, bool) {
	switch p := Permission(value); p {
	case PermissionView, PermissionEdit:
		return p, true
	default:
		return "", false
	}
}

// CanEdit reports whether the permission allows changing the note.
func (p Permission) CanEdit() bool {
	return p == PermissionEdit
}

// User is an account of the user directory.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"date_joined"`
}

// Note is a text note owned by exactly one user.
type Note struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:255;not null"`
	Content   string    `gorm:"type:text;not null"`
	OwnerID   uint      `gorm:"not null;index"`
	Owner     User      `gorm:"foreignKey:OwnerID"`
	Tags      []Tag     `gorm:"many2many:note_tags;"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TagNames returns the names of the note's tags.
func (n Note) TagNames() []string {
	names := make([]string, 0, len(n.Tags))
	for _, tag := range n.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// Tag is a canonical tag, unique by its exact name.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null;uniqueIndex"`
}

// ShareGrant gives a non-owner access to a note. There is at most one grant
// per note and user.
type ShareGrant struct {
	ID           uint       `gorm:"primaryKey"`
	NoteID       uint       `gorm:"not null;uniqueIndex:idx_share_note_user"`
	Note         Note       `gorm:"foreignKey:NoteID"`
	SharedUserID uint       `gorm:"not null;uniqueIndex:idx_share_note_user;index"`
	SharedUser   User       `gorm:"foreignKey:SharedUserID"`
	Permission   Permission `gorm:"size:16;not null"`
	SharedAt     time.Time  `gorm:"not null"`
}

// Session is a cookie login of a user. EndedAt is set on logout.
type Session struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID"`
	Token     string    `gorm:"size:255;not null;uniqueIndex"`
	StartedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
}

// Active reports whether the session can still authenticate at now.
func (s Session) Active(now time.Time) bool {
	return s.EndedAt == nil && now.Before(s.ExpiresAt)
}

// TelegramLink binds a Telegram account to a user.
type TelegramLink struct {
	TelegramID int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID     uint  `gorm:"not null;index"`
	User       User  `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time
}

// Identity is the acting user of a request.
type Identity struct {
	UserID   uint
	Username string
	Email    string
}

// IdentityOf returns the identity of user.
func IdentityOf(user User) Identity {
	return Identity{UserID: user.ID, Username: user.Username, Email: user.Email}
}

// All lists every model managed by migrations.
func All() []any {
	return []any{&User{}, &Note{}, &Tag{}, &ShareGrant{}, &Session{}, &TelegramLink{}}
}

package users

import (
	"strings"
	"time"
)

// User is a platform account. Identity verification happens upstream; this
// service only owns the stable identifier other records reference.
type User struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null"`
	Username  string    `gorm:"column:username;size:190;not null;uniqueIndex:idx_users_username"`
	Email     string    `gorm:"column:email;size:320"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}

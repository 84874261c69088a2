package domain

import "time"

// APIUser owns an API key for the optimization endpoints.
type APIUser struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	KeyPrefix      string     `gorm:"column:key_prefix;uniqueIndex;not null" json:"key_prefix"`
	KeyHash        string     `gorm:"column:key_hash;not null" json:"-"`
	LastActivityAt *time.Time `gorm:"column:last_activity_at" json:"last_activity_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (APIUser) TableName() string {
	return "api_users"
}

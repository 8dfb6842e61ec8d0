package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member is a cooperative member who holds bond shares.
type Member struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberCode string       `gorm:"not null;uniqueIndex" json:"member_code"`
	FirstName  string       `gorm:"not null" json:"first_name"`
	LastName   string       `gorm:"not null" json:"last_name"`
	Email      string       `gorm:"not null" json:"email"`
	Phone      string       `json:"phone,omitempty"`
	Status     MemberStatus `gorm:"not null;default:active" json:"status"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

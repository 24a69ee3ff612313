package models

import (
	"time"
)

const (
	RequestStatusPending   = "PENDING"
	RequestStatusAccepted  = "ACCEPTED"
	RequestStatusCompleted = "COMPLETED"
	RequestStatusCancelled = "CANCELLED"
)

// TraderRequest is a trader's ask for an agent to come and grade their
// produce. AgentID is null until an agent accepts and is never reassigned
// afterwards.
type TraderRequest struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	TraderID      string     `gorm:"type:uuid;not null;index" json:"traderId"`
	TraderPhone   string     `gorm:"type:varchar(20);not null" json:"traderPhone"`
	TraderName    string     `gorm:"type:varchar(255);not null" json:"traderName"`
	TraderAddress *string    `gorm:"type:text" json:"traderAddress,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;default:PENDING;index" json:"status"`
	AgentID       *string    `gorm:"type:uuid;index" json:"agentId,omitempty"`
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`
	AcceptedAt    *time.Time `gorm:"type:timestamptz" json:"acceptedAt,omitempty"`
	CompletedAt   *time.Time `gorm:"type:timestamptz" json:"completedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (TraderRequest) TableName() string {
	return "trader_requests"
}

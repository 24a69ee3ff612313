package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// Grading is the settlement record produced when an agent grades a
// trader's goods. Trader and agent details are denormalized on purpose:
// the payout that was promised must survive later edits to either profile
// in the user directory. BaseReferencePrice is the BRP that was in force
// when the calculation ran and is never rewritten.
//
// RequestID links the grading to its originating trader request. It is
// null for walk-in gradings submitted against a trader phone number.
type Grading struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	RequestID *string `gorm:"type:uuid;uniqueIndex" json:"requestId,omitempty"`

	TraderID          string  `gorm:"type:uuid;not null;index" json:"traderId"`
	TraderPhone       string  `gorm:"type:varchar(20);not null;index" json:"traderPhone"`
	TraderName        string  `gorm:"type:varchar(255);not null" json:"traderName"`
	TraderBankAccount *string `gorm:"type:varchar(32)" json:"traderBankAccount,omitempty"`
	TraderBankName    *string `gorm:"type:varchar(255)" json:"traderBankName,omitempty"`

	AgentID    string `gorm:"type:uuid;not null;index" json:"agentId"`
	AgentName  string `gorm:"type:varchar(255);not null" json:"agentName"`
	AgentPhone string `gorm:"type:varchar(20);not null" json:"agentPhone"`

	GradeAWeight decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"gradeAWeight"`
	GradeBWeight decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"gradeBWeight"`
	GradeCWeight decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"gradeCWeight"`
	GradeDWeight decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"gradeDWeight"`

	GradeAAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"gradeAAmount"`
	GradeBAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"gradeBAmount"`
	GradeCAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"gradeCAmount"`
	GradeDAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"gradeDAmount"`

	TotalWeight decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalWeight"`
	// TotalAmount excludes grade D; unripe goods are settled later.
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`

	BaseReferencePrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"baseReferencePrice"`

	AgentNotes *string `gorm:"type:text" json:"agentNotes,omitempty"`

	PaymentStatus string     `gorm:"type:varchar(20);not null;default:PENDING;index" json:"paymentStatus"`
	GradedAt      time.Time  `gorm:"type:timestamptz;not null;index" json:"gradedAt"`
	PaidAt        *time.Time `gorm:"type:timestamptz" json:"paidAt,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (Grading) TableName() string {
	return "gradings"
}

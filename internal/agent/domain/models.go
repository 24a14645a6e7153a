package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Agent is a payee. TotalPayouts only grows, through IncrementTotalPayouts.
type Agent struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	AgentCode      string          `gorm:"not null;uniqueIndex" json:"agent_code"`
	Name           string          `gorm:"not null" json:"name"`
	Email          string          `gorm:"not null;default:''" json:"email"`
	Phone          string          `gorm:"not null;default:''" json:"phone"`
	Address        string          `gorm:"not null;default:''" json:"address"`
	CommissionRate decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"commission_rate"`
	TotalPayouts   decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"total_payouts"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (Agent) TableName() string { return "agents" }

package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	}
	return false
}

// UnknownName labels a payout whose agent or carrier could not be resolved.
const UnknownName = "Unknown"

// Payout is the money owed for one processed record. RecordID is unique, so
// a record yields at most one payout.
type Payout struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	RecordID     snowflake.ID      `gorm:"not null;uniqueIndex" json:"record_id"`
	AgentID      *snowflake.ID     `gorm:"index" json:"agent_id"`
	AgentName    string            `gorm:"not null" json:"agent_name"`
	CarrierID    snowflake.ID      `gorm:"not null" json:"carrier_id"`
	CarrierName  string            `gorm:"not null" json:"carrier_name"`
	PolicyNumber string            `gorm:"not null;default:''" json:"policy_number"`
	Amount       decimal.Decimal   `gorm:"type:numeric(20,4);not null" json:"amount"`
	Commission   decimal.Decimal   `gorm:"type:numeric(20,4);not null" json:"commission"`
	Status       Status            `gorm:"not null;index" json:"status"`
	PayoutDate   time.Time         `gorm:"not null" json:"payout_date"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	MappedData   datatypes.JSONMap `gorm:"not null" json:"mapped_data"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

func (Payout) TableName() string { return "payouts" }

var amountNoise = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "₹", "", ",", "", " ", "")

// ParseAmount reads a mapped money value. Currency symbols, thousands
// separators and spaces are tolerated in strings. ok is false when the value
// is present but not a number.
func ParseAmount(v any) (amount decimal.Decimal, ok bool) {
	switch value := v.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return value, true
	case float64:
		return decimal.NewFromFloat(value), true
	case float32:
		return decimal.NewFromFloat32(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case json.Number:
		d, err := decimal.NewFromString(value.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		cleaned := amountNoise.Replace(strings.TrimSpace(value))
		if cleaned == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Commission applies a percentage rate to amount.
func Commission(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(4)
}

package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type CreateAgentRequest struct {
	Name           string          `json:"name"`
	AgentCode      string          `json:"agent_code"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type UpdateAgentRequest = CreateAgentRequest

type ListAgentRequest struct {
	PageToken string
	PageSize  int
	AgentCode string
}

type ListAgentFilter struct {
	AgentCode string
}

type ListAgentResponse struct {
	pagination.PageInfo
	Agents []Agent `json:"agents"`
}

type Service interface {
	Create(ctx context.Context, req CreateAgentRequest) (Agent, error)
	Get(ctx context.Context, id string) (Agent, error)
	List(ctx context.Context, req ListAgentRequest) (ListAgentResponse, error)
	Update(ctx context.Context, id string, req UpdateAgentRequest) (Agent, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidAgentCode      = errors.New("invalid_agent_code")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrAgentCodeExists       = errors.New("agent_code_exists")
	ErrNotFound              = errors.New("agent_not_found")
)

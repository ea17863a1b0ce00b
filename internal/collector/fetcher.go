package collector

import (
	"context"

	"MarketBell/internal/model"
)

// Provider supplies the trading schedule for the current local day.
type Provider interface {
	GetTradingSchedule(ctx context.Context) (*model.TradingSchedule, error)
	Name() string
}

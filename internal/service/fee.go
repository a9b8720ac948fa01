package service

import (
	"time"

	"parking-gate-service/internal/config"
)

// ComputeFee prices a non-whitelisted stay. Tier boundaries are
// inclusive upper limits: exactly the short-stay limit still prices as
// a short stay.
func ComputeFee(cfg config.FeeConfig, duration time.Duration) float64 {
	if duration <= cfg.ShortStayLimit {
		return cfg.ShortStayFee
	}
	if duration <= cfg.DayLimit {
		return cfg.DayFee
	}
	return cfg.OvernightFee
}

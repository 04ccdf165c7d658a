package router

import "github.com/hxuan190/gd-exchange/internal/domain"

// Price impact thresholds in basis points (bps)
const (
	PriceImpactLow      int64 = 100  // 1% - Low impact
	PriceImpactModerate int64 = 300  // 3% - Moderate impact
	PriceImpactHigh     int64 = 500  // 5% - High impact
	PriceImpactExtreme  int64 = 1000 // 10% - Extreme impact
)

// PriceImpactSeverity represents the severity level of price impact
type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"     // < 1%
	SeverityLow      PriceImpactSeverity = "low"      // 1-3%
	SeverityModerate PriceImpactSeverity = "moderate" // 3-5%
	SeverityHigh     PriceImpactSeverity = "high"     // 5-10%
	SeverityExtreme  PriceImpactSeverity = "extreme"  // > 10%
)

// GetPriceImpactSeverity returns the severity level based on price impact bps
func GetPriceImpactSeverity(priceImpactBps int64) PriceImpactSeverity {
	switch {
	case priceImpactBps < PriceImpactLow:
		return SeverityNone
	case priceImpactBps < PriceImpactModerate:
		return SeverityLow
	case priceImpactBps < PriceImpactHigh:
		return SeverityModerate
	case priceImpactBps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// GetPriceImpactWarning returns a user-friendly warning message based on impact
func GetPriceImpactWarning(priceImpactBps int64) string {
	switch GetPriceImpactSeverity(priceImpactBps) {
	case SeverityLow:
		return "Low price impact"
	case SeverityModerate:
		return "Moderate price impact - consider reducing trade size"
	case SeverityHigh:
		return "High price impact - you may receive significantly less tokens"
	case SeverityExtreme:
		return "EXTREME price impact - this trade will severely impact the market price"
	default:
		return ""
	}
}

// RealizedLPFeePriceImpact splits a trade's raw price impact into the part
// caused by pool fees and the rest. The returned impact excludes fees and is
// clamped at zero; the fee is charged on the input amount.
func RealizedLPFeePriceImpact(trade *Trade) (domain.Amount, domain.Percent) {
	realized := trade.RealizedLPFeePercent()
	impact := trade.PriceImpact().Sub(realized)
	if impact.Sign() < 0 {
		impact = domain.ZeroPercent()
	}
	fee := trade.InputAmount.MulPercent(realized)
	return fee, impact
}

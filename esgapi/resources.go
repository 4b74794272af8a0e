/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"sort"
	"time"
)

// Resource names a dashboard resource of the ESG backend.
// It is used as the request type label and as the key of TTL overrides.
type Resource string

// Resources of the ESG backend.
const (
	ResourceDashboard               Resource = "dashboard"
	ResourceAnalyticsSummary        Resource = "analytics_summary"
	ResourceMarketLatest            Resource = "market_latest"
	ResourceLatestPrice             Resource = "latest_price"
	ResourceStockPrices             Resource = "stock_prices"
	ResourceLatestESG               Resource = "latest_esg"
	ResourceCompanyBySymbol         Resource = "company_by_symbol"
	ResourceCompanyByID             Resource = "company_by_id"
	ResourceSectorComparisons       Resource = "sector_comparisons"
	ResourceMarketHistory           Resource = "market_history"
	ResourceCorrelation             Resource = "correlation"
	ResourceTopPERatio              Resource = "top_pe_ratio"
	ResourceAlerts                  Resource = "alerts"
	ResourceWSStatus                Resource = "ws_status"
	ResourceESGTrends               Resource = "esg_trends"
	ResourceFinancialIndicators     Resource = "financial_indicators"
	ResourceAdvancedSummary         Resource = "advanced_summary"
	ResourceRiskAssessment          Resource = "risk_assessment"
	ResourceESGScores               Resource = "esg_scores"
	ResourceCompanyFinancialSummary Resource = "company_financial_summary"
)

var defaultTTLs = map[Resource]time.Duration{
	ResourceDashboard:               15 * time.Second,
	ResourceAnalyticsSummary:        120 * time.Second,
	ResourceMarketLatest:            15 * time.Second,
	ResourceLatestPrice:             15 * time.Second,
	ResourceStockPrices:             20 * time.Second,
	ResourceLatestESG:               15 * time.Second,
	ResourceCompanyBySymbol:         15 * time.Second,
	ResourceCompanyByID:             15 * time.Second,
	ResourceSectorComparisons:       180 * time.Second,
	ResourceMarketHistory:           30 * time.Second,
	ResourceCorrelation:             60 * time.Second,
	ResourceTopPERatio:              30 * time.Second,
	ResourceAlerts:                  15 * time.Second,
	ResourceWSStatus:                5 * time.Second,
	ResourceESGTrends:               15 * time.Second,
	ResourceFinancialIndicators:     30 * time.Second,
	ResourceAdvancedSummary:         60 * time.Second,
	ResourceRiskAssessment:          60 * time.Second,
	ResourceESGScores:               10 * time.Second,
	ResourceCompanyFinancialSummary: 15 * time.Second,
}

// DefaultTTL returns the freshness lifetime of the resource when no override is configured.
// Unknown resources are not cached.
func DefaultTTL(r Resource) time.Duration {
	return defaultTTLs[r]
}

// IsKnown reports whether r is one of the resources of the ESG backend.
func (r Resource) IsKnown() bool {
	_, ok := defaultTTLs[r]
	return ok
}

// Resources returns all known resources sorted by name.
func Resources() []Resource {
	res := make([]Resource, 0, len(defaultTTLs))
	for r := range defaultTTLs {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

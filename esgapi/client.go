/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ethosview/dashgate/gateway"
	"github.com/ethosview/dashgate/log"
)

// Defaults of the optional request parameters.
const (
	DefaultStockPricesLimit   = 30
	DefaultMarketHistoryLimit = 30
	DefaultTopPERatioLimit    = 5
	DefaultESGTrendsDays      = 30
	DefaultESGScoresLimit     = 20
)

const dateLayout = "2006-01-02"

// ClientOpts contains optional parameters for the Client.
type ClientOpts struct {
	// Logger is used for warm-up logs. Logging is disabled when nil.
	Logger log.FieldLogger

	// Now returns the current time. It is used to build date ranges of the home page. time.Now is used when nil.
	Now func() time.Time
}

// Client fetches typed resources of the ESG backend through the gateway.
type Client struct {
	gw      *gateway.Gateway
	ttls    map[Resource]time.Duration
	stagger time.Duration
	logger  log.FieldLogger
	now     func() time.Time
}

// NewClient creates a new Client. A nil cfg means the default configuration.
func NewClient(gw *gateway.Gateway, cfg *Config, opts ClientOpts) *Client {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	ttls := make(map[Resource]time.Duration, len(defaultTTLs))
	for r, ttl := range defaultTTLs {
		ttls[r] = ttl
	}
	for r, ttl := range cfg.TTLOverrides {
		ttls[r] = ttl
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{gw: gw, ttls: ttls, stagger: cfg.Warmup.Stagger, logger: opts.Logger, now: opts.Now}
}

// TTL returns the freshness lifetime used for the resource.
func (c *Client) TTL(r Resource) time.Duration {
	return c.ttls[r]
}

// BackoffRemaining returns how long the global rate-limit window of the gateway stays active.
func (c *Client) BackoffRemaining() time.Duration {
	return c.gw.BackoffRemaining()
}

func get[T any](ctx context.Context, c *Client, r Resource, path string) (T, error) {
	return gateway.GetJSON[T](ctx, c.gw, path, c.TTL(r), gateway.WithRequestType(string(r)))
}

// Dashboard returns the dashboard overview.
func (c *Client) Dashboard(ctx context.Context) (DashboardResponse, error) {
	return get[DashboardResponse](ctx, c, ResourceDashboard, "/api/v1/dashboard")
}

// AnalyticsSummary returns the analytics summary.
func (c *Client) AnalyticsSummary(ctx context.Context) (AnalyticsSummaryResponse, error) {
	return get[AnalyticsSummaryResponse](ctx, c, ResourceAnalyticsSummary, "/api/v1/analytics/summary")
}

// MarketLatest returns the latest market data.
func (c *Client) MarketLatest(ctx context.Context) (MarketLatestResponse, error) {
	return get[MarketLatestResponse](ctx, c, ResourceMarketLatest, "/api/v1/financial/market")
}

// LatestPrice returns the latest stock price of the company.
func (c *Client) LatestPrice(ctx context.Context, companyID int) (LatestPriceResponse, error) {
	return get[LatestPriceResponse](ctx, c, ResourceLatestPrice,
		fmt.Sprintf("/api/v1/financial/companies/%d/price/latest", companyID))
}

// StockPrices returns up to limit latest stock prices of the company.
// DefaultStockPricesLimit is used when limit is not positive.
func (c *Client) StockPrices(ctx context.Context, companyID, limit int) (StockPricesResponse, error) {
	if limit <= 0 {
		limit = DefaultStockPricesLimit
	}
	return get[StockPricesResponse](ctx, c, ResourceStockPrices,
		fmt.Sprintf("/api/v1/financial/companies/%d/prices?limit=%d", companyID, limit))
}

// LatestESG returns the latest ESG score of the company.
func (c *Client) LatestESG(ctx context.Context, companyID int) (LatestESGResponse, error) {
	return get[LatestESGResponse](ctx, c, ResourceLatestESG,
		fmt.Sprintf("/api/v1/esg/companies/%d/latest", companyID))
}

// CompanyBySymbol returns the company with the ticker symbol.
func (c *Client) CompanyBySymbol(ctx context.Context, symbol string) (CompanyResponse, error) {
	return get[CompanyResponse](ctx, c, ResourceCompanyBySymbol, "/api/v1/companies/symbol/"+url.PathEscape(symbol))
}

// CompanyByID returns the company with the id.
func (c *Client) CompanyByID(ctx context.Context, companyID int) (CompanyResponse, error) {
	return get[CompanyResponse](ctx, c, ResourceCompanyByID, fmt.Sprintf("/api/v1/companies/%d", companyID))
}

// SectorComparisons returns aggregates of all sectors.
func (c *Client) SectorComparisons(ctx context.Context) (SectorComparisonsResponse, error) {
	return get[SectorComparisonsResponse](ctx, c, ResourceSectorComparisons, "/api/v1/analytics/sectors/comparisons")
}

// MarketHistory returns up to limit daily market snapshots between start and end dates.
// DefaultMarketHistoryLimit is used when limit is not positive.
func (c *Client) MarketHistory(ctx context.Context, start, end time.Time, limit int) (MarketHistoryResponse, error) {
	if limit <= 0 {
		limit = DefaultMarketHistoryLimit
	}
	return get[MarketHistoryResponse](ctx, c, ResourceMarketHistory,
		fmt.Sprintf("/api/v1/financial/market/history?start_date=%s&end_date=%s&limit=%d",
			start.Format(dateLayout), end.Format(dateLayout), limit))
}

// Correlation returns the correlation between ESG scores and financial metrics.
func (c *Client) Correlation(ctx context.Context) (CorrelationResponse, error) {
	return get[CorrelationResponse](ctx, c, ResourceCorrelation, "/api/v1/analytics/correlation/esg-financial")
}

// TopPERatio returns up to limit companies with the best P/E ratio.
// DefaultTopPERatioLimit is used when limit is not positive.
func (c *Client) TopPERatio(ctx context.Context, limit int) (TopPerformersResponse, error) {
	if limit <= 0 {
		limit = DefaultTopPERatioLimit
	}
	return get[TopPerformersResponse](ctx, c, ResourceTopPERatio,
		fmt.Sprintf("/api/v1/analytics/top-performers/pe_ratio?limit=%d", limit))
}

// Alerts returns active alerts, or all alerts when all is true.
func (c *Client) Alerts(ctx context.Context, all bool) (AlertsResponse, error) {
	return get[AlertsResponse](ctx, c, ResourceAlerts, "/alerts?all="+strconv.FormatBool(all))
}

// WSStatus returns the status of the websocket hub.
func (c *Client) WSStatus(ctx context.Context) (WSStatusResponse, error) {
	return get[WSStatusResponse](ctx, c, ResourceWSStatus, "/api/v1/ws/status")
}

// ESGTrends returns ESG scores of the company for the last days.
// DefaultESGTrendsDays is used when days is not positive.
func (c *Client) ESGTrends(ctx context.Context, companyID, days int) (ESGTrendsResponse, error) {
	if days <= 0 {
		days = DefaultESGTrendsDays
	}
	return get[ESGTrendsResponse](ctx, c, ResourceESGTrends,
		fmt.Sprintf("/api/v1/analytics/companies/%d/esg-trends?days=%d", companyID, days))
}

// FinancialIndicators returns the latest financial ratios of the company.
func (c *Client) FinancialIndicators(ctx context.Context, companyID int) (FinancialIndicatorsResponse, error) {
	return get[FinancialIndicatorsResponse](ctx, c, ResourceFinancialIndicators,
		fmt.Sprintf("/api/v1/financial/companies/%d/indicators", companyID))
}

// AdvancedSummary returns the portfolio, risk and trend summary.
func (c *Client) AdvancedSummary(ctx context.Context) (AdvancedSummaryResponse, error) {
	return get[AdvancedSummaryResponse](ctx, c, ResourceAdvancedSummary, "/api/v1/advanced/summary")
}

// RiskAssessment returns the risk assessment of the company.
func (c *Client) RiskAssessment(ctx context.Context, companyID int) (RiskAssessmentResponse, error) {
	return get[RiskAssessmentResponse](ctx, c, ResourceRiskAssessment,
		fmt.Sprintf("/api/v1/advanced/companies/%d/risk-assessment", companyID))
}

// ESGScores returns a page of ESG scores not lower than minScore.
// DefaultESGScoresLimit is used when limit is not positive.
func (c *Client) ESGScores(ctx context.Context, limit int, minScore float64, offset int) (ESGScoresListResponse, error) {
	if limit <= 0 {
		limit = DefaultESGScoresLimit
	}
	return get[ESGScoresListResponse](ctx, c, ResourceESGScores,
		fmt.Sprintf("/api/v1/esg/scores?limit=%d&min_score=%s&offset=%d",
			limit, strconv.FormatFloat(minScore, 'f', -1, 64), offset))
}

// CompanyFinancialSummary returns the price change summary of the company.
func (c *Client) CompanyFinancialSummary(ctx context.Context, companyID int) (CompanyFinancialSummaryResponse, error) {
	return get[CompanyFinancialSummaryResponse](ctx, c, ResourceCompanyFinancialSummary,
		fmt.Sprintf("/api/v1/financial/companies/%d/summary", companyID))
}

/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import "encoding/json"

// Summary is the headline numbers of the dashboard.
type Summary struct {
	TotalCompanies int     `json:"total_companies"`
	TotalSectors   int     `json:"total_sectors"`
	AvgESGScore    float64 `json:"avg_esg_score"`
}

// ESGScore is a single ESG score of a company.
type ESGScore struct {
	ID            int     `json:"id"`
	CompanyID     int     `json:"company_id"`
	OverallScore  float64 `json:"overall_score"`
	CompanyName   string  `json:"company_name,omitempty"`
	CompanySymbol string  `json:"company_symbol,omitempty"`
	ScoreDate     string  `json:"score_date"`
}

// DashboardResponse is returned by /api/v1/dashboard.
type DashboardResponse struct {
	Summary      Summary            `json:"summary"`
	TopESGScores []ESGScore         `json:"top_esg_scores"`
	Sectors      []string           `json:"sectors"`
	SectorStats  map[string]float64 `json:"sector_stats"`
}

// PerformanceMetric is a ranked metric of a company.
type PerformanceMetric struct {
	CompanyID   int     `json:"company_id"`
	CompanyName string  `json:"company_name"`
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
	Rank        int     `json:"rank"`
	TotalCount  int     `json:"total_count"`
	Percentile  float64 `json:"percentile"`
	Date        string  `json:"date"`
}

// SectorComparison aggregates companies of one sector.
type SectorComparison struct {
	Sector          string  `json:"sector"`
	CompanyCount    int     `json:"company_count"`
	AvgESGScore     float64 `json:"avg_esg_score"`
	AvgPERatio      float64 `json:"avg_pe_ratio"`
	AvgMarketCap    float64 `json:"avg_market_cap"`
	TotalMarketCap  float64 `json:"total_market_cap"`
	BestESGCompany  string  `json:"best_esg_company"`
	WorstESGCompany string  `json:"worst_esg_company"`
}

// AnalyticsSummaryResponse is returned by /api/v1/analytics/summary.
type AnalyticsSummaryResponse struct {
	Summary           Summary                    `json:"summary"`
	SectorComparisons []SectorComparison         `json:"sector_comparisons"`
	TopESGPerformers  []PerformanceMetric        `json:"top_esg_performers"`
	TopMarketCap      []PerformanceMetric        `json:"top_market_cap"`
	Correlation       map[string]json.RawMessage `json:"correlation"`
}

// SectorComparisonsResponse is returned by /api/v1/analytics/sectors/comparisons.
type SectorComparisonsResponse struct {
	SectorComparisons []SectorComparison `json:"sector_comparisons"`
	Count             int                `json:"count"`
}

// MarketData is a daily snapshot of market indices.
type MarketData struct {
	ID          int      `json:"id,omitempty"`
	Date        string   `json:"date"`
	SP500Close  *float64 `json:"sp500_close,omitempty"`
	NasdaqClose *float64 `json:"nasdaq_close,omitempty"`
	DowClose    *float64 `json:"dow_close,omitempty"`
	VIXClose    *float64 `json:"vix_close,omitempty"`
	Treasury10Y *float64 `json:"treasury_10y,omitempty"`
}

// MarketLatestResponse is returned by /api/v1/financial/market.
type MarketLatestResponse struct {
	MarketData MarketData `json:"market_data"`
}

// MarketHistoryResponse is returned by /api/v1/financial/market/history.
type MarketHistoryResponse struct {
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Data      []MarketData `json:"data"`
	Count     int          `json:"count"`
}

// Price is a daily stock price.
type Price struct {
	ClosePrice float64 `json:"close_price"`
	Date       string  `json:"date"`
	Volume     int64   `json:"volume"`
}

// LatestPriceResponse is returned by /api/v1/financial/companies/{id}/price/latest.
// Price is nil when the company has no prices yet.
type LatestPriceResponse struct {
	CompanyID int    `json:"company_id"`
	Price     *Price `json:"price"`
}

// StockPricesResponse is returned by /api/v1/financial/companies/{id}/prices.
type StockPricesResponse struct {
	CompanyID int     `json:"company_id"`
	Prices    []Price `json:"prices"`
	Count     int     `json:"count"`
}

// LatestESGResponse is returned by /api/v1/esg/companies/{id}/latest.
type LatestESGResponse = ESGScore

// CompanyResponse is returned by /api/v1/companies/{id} and /api/v1/companies/symbol/{symbol}.
type CompanyResponse struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	Country   string  `json:"country"`
	MarketCap float64 `json:"market_cap"`
}

// CorrelationResponse is returned by /api/v1/analytics/correlation/esg-financial.
type CorrelationResponse struct {
	SampleSize       int     `json:"sample_size"`
	AvgESGScore      float64 `json:"avg_esg_score"`
	AvgMarketCap     float64 `json:"avg_market_cap"`
	AvgPERatio       float64 `json:"avg_pe_ratio"`
	AvgROE           float64 `json:"avg_roe"`
	AvgProfitMargin  float64 `json:"avg_profit_margin"`
	ESGMarketCapCorr float64 `json:"esg_market_cap_corr"`
	ESGPECorr        float64 `json:"esg_pe_corr"`
	ESGROECorr       float64 `json:"esg_roe_corr"`
	ESGProfitCorr    float64 `json:"esg_profit_corr"`
}

// TopPerformersResponse is returned by /api/v1/analytics/top-performers/{metric}.
type TopPerformersResponse struct {
	Metric        string              `json:"metric"`
	TopPerformers []PerformanceMetric `json:"top_performers"`
	Count         int                 `json:"count"`
	Limit         int                 `json:"limit"`
}

// AlertsResponse is returned by /alerts.
type AlertsResponse struct {
	Alerts     []json.RawMessage `json:"alerts"`
	Count      int               `json:"count"`
	ActiveOnly bool              `json:"active_only"`
}

// WSStatusResponse is returned by /api/v1/ws/status. Its shape is not fixed.
type WSStatusResponse map[string]json.RawMessage

// ESGTrendPoint is an ESG score of a company on a day.
type ESGTrendPoint struct {
	Date     string  `json:"date"`
	ESGScore float64 `json:"esg_score"`
	EScore   float64 `json:"e_score"`
	SScore   float64 `json:"s_score"`
	GScore   float64 `json:"g_score"`
}

// ESGTrendsResponse is returned by /api/v1/analytics/companies/{id}/esg-trends.
type ESGTrendsResponse struct {
	CompanyID int             `json:"company_id"`
	Trends    []ESGTrendPoint `json:"trends"`
	Count     int             `json:"count"`
	Days      int             `json:"days"`
}

// FinancialIndicators are the latest financial ratios of a company.
type FinancialIndicators struct {
	MarketCap      *float64 `json:"market_cap,omitempty"`
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	PBRatio        *float64 `json:"pb_ratio,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
}

// FinancialIndicatorsResponse is returned by /api/v1/financial/companies/{id}/indicators.
type FinancialIndicatorsResponse struct {
	CompanyID  int                  `json:"company_id"`
	Indicators *FinancialIndicators `json:"indicators"`
}

// RiskDistribution counts companies per risk level.
type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// TrendCounts counts improving, declining and stable series.
type TrendCounts struct {
	Improving int `json:"improving,omitempty"`
	Declining int `json:"declining,omitempty"`
	Up        int `json:"up,omitempty"`
	Down      int `json:"down,omitempty"`
	Stable    int `json:"stable"`
}

// AdvancedSummaryResponse is returned by /api/v1/advanced/summary.
type AdvancedSummaryResponse struct {
	Summary struct {
		PortfolioOptimization json.RawMessage `json:"portfolio_optimization"`
		RiskSummary           struct {
			TotalCompaniesAssessed int              `json:"total_companies_assessed"`
			AverageRiskScore       float64          `json:"average_risk_score"`
			RiskDistribution       RiskDistribution `json:"risk_distribution"`
		} `json:"risk_summary"`
		TrendSummary struct {
			ESGTrends   TrendCounts `json:"esg_trends"`
			PriceTrends TrendCounts `json:"price_trends"`
		} `json:"trend_summary"`
		Message string `json:"message"`
	} `json:"summary"`
}

// RiskAssessmentResponse is returned by /api/v1/advanced/companies/{id}/risk-assessment.
type RiskAssessmentResponse struct {
	Assessment json.RawMessage `json:"assessment"`
	Message    string          `json:"message"`
}

// Pagination describes a page of a list.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ESGScoresListResponse is returned by /api/v1/esg/scores.
type ESGScoresListResponse struct {
	Scores     []ESGScore `json:"scores"`
	Pagination Pagination `json:"pagination"`
	Filters    *struct {
		MinScore *float64 `json:"min_score,omitempty"`
	} `json:"filters,omitempty"`
}

// CompanyFinancialSummaryResponse is returned by /api/v1/financial/companies/{id}/summary.
type CompanyFinancialSummaryResponse struct {
	CompanyID int `json:"company_id"`
	Summary   struct {
		LatestPrice        float64 `json:"latest_price"`
		PriceChange        float64 `json:"price_change"`
		PriceChangePercent float64 `json:"price_change_percent"`
		Volume             int64   `json:"volume"`
	} `json:"summary"`
}

package collector

type StockResult struct {
	Success       bool   `json:"success"`
	ProductsCount int    `json:"products_count"`
	StocksCount   int    `json:"stocks_count"`
	SavedCount    int    `json:"saved_count"`
	Error         string `json:"error,omitempty"`
}

// OrdersResult reports one order collection. SavedCount counts orders that
// were created or enriched; existing complete orders are refreshed silently.
type OrdersResult struct {
	Success     bool   `json:"success"`
	Strategy    string `json:"strategy,omitempty"`
	OrdersCount int    `json:"orders_count"`
	SavedCount  int    `json:"saved_count"`
	Error       string `json:"error,omitempty"`
}

type ChunkResult struct {
	Success     bool   `json:"success"`
	StartID     int    `json:"start_id"`
	EndID       int    `json:"end_id"`
	OrdersFound int    `json:"orders_found"`
	SavedCount  int    `json:"saved_count"`
	Error       string `json:"error,omitempty"`
}

type BrandingResult struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

const (
	StrategyDateFilter = "date_filter"
	StrategyIDScan     = "id_scan"
)

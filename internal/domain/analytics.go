package domain

// PharmacyRevenue сводка по аптеке за период
type PharmacyRevenue struct {
	PharmacyID      string  `json:"pharmacy_id"`
	PharmacyName    string  `json:"pharmacy_name"`
	TotalSales      float64 `json:"total_sales"`
	Orders          int     `json:"orders"`
	CommissionRate  float64 `json:"commission_rate"`
	Commission      float64 `json:"commission"`
	PlatformRevenue float64 `json:"platform_revenue"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	GrowthPercent   float64 `json:"growth_percent"`
}

// GroupSummary сводка по произвольному разрезу (категория, город, врач)
type GroupSummary struct {
	Key           string  `json:"key"`
	TotalSales    float64 `json:"total_sales"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// CommissionBreakdown распределение комиссий за период
type CommissionBreakdown struct {
	PharmacyCommission float64 `json:"pharmacy_commission"`
	DoctorCommission   float64 `json:"doctor_commission"`
	PlatformRevenue    float64 `json:"platform_revenue"`
	TotalCommission    float64 `json:"total_commission"`
}

// DailyRevenue точка временного ряда, одна на календарный день
type DailyRevenue struct {
	Date            string  `json:"date"`
	Revenue         float64 `json:"revenue"`
	Orders          int     `json:"orders"`
	Commission      float64 `json:"commission"`
	PlatformRevenue float64 `json:"platform_revenue"`
}

// RevenueOverview ключевые показатели периода
type RevenueOverview struct {
	TotalRevenue    float64 `json:"total_revenue"`
	NetRevenue      float64 `json:"net_revenue"`
	GrossProfit     float64 `json:"gross_profit"`
	TotalCommission float64 `json:"total_commission"`
	PlatformRevenue float64 `json:"platform_revenue"`
	ReturnRate      float64 `json:"return_rate"`
	RefundAmount    float64 `json:"refund_amount"`
}

// PriorPeriod базовые показатели предыдущего периода, задаются вызывающим.
// Нулевая база даёт нулевой рост, синтетика не придумывается.
type PriorPeriod struct {
	TotalSales      float64            `json:"total_sales"`
	Orders          int                `json:"orders"`
	SalesByPharmacy map[string]float64 `json:"sales_by_pharmacy,omitempty"`
}

// RevenueAnalytics полный отчёт по выручке за период
type RevenueAnalytics struct {
	TimeframeDays int                 `json:"timeframe_days"`
	Overview      RevenueOverview     `json:"overview"`
	Pharmacies    []PharmacyRevenue   `json:"pharmacies"`
	Categories    []GroupSummary      `json:"categories"`
	Cities        []GroupSummary      `json:"cities"`
	Doctors       []GroupSummary      `json:"doctors"`
	Breakdown     CommissionBreakdown `json:"breakdown"`
	TimeSeries    []DailyRevenue      `json:"time_series"`
	GrowthPercent float64             `json:"growth_percent"`
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mediqa/internal/domain"
	"mediqa/internal/repository"
)

const (
	// defaultCommissionRate применяется, когда аптека не найдена в таблице ставок
	defaultCommissionRate = 10.0
	// doctorReferralRate ставка вознаграждения врача за приведённый заказ
	doctorReferralRate = 5.0
	// grossMarginEstimate оценочная маржа для показателя валовой прибыли
	grossMarginEstimate = 0.20
)

var percentBase = decimal.NewFromInt(100)

// RevenueService расчёт комиссий и агрегация выручки за период
type RevenueService struct {
	orders     repository.OrderRepository
	pharmacies repository.PharmacyRepository
	now        func() time.Time
}

func NewRevenueService(orders repository.OrderRepository, pharmacies repository.PharmacyRepository) *RevenueService {
	return &RevenueService{orders: orders, pharmacies: pharmacies, now: time.Now}
}

// CommissionRate ставка аптеки в процентах; неизвестная аптека получает ставку по умолчанию
func (s *RevenueService) CommissionRate(ctx context.Context, pharmacyID string) float64 {
	ph, err := s.pharmacies.GetByID(ctx, pharmacyID)
	if err != nil {
		return defaultCommissionRate
	}
	return ph.CommissionRate
}

// ComputeCommission делит сумму заказа на комиссию аптеки и выручку платформы.
// Считается в decimal: комиссия и выручка платформы в сумме дают исходное
// значение без потерь.
func (s *RevenueService) ComputeCommission(ctx context.Context, pharmacyID string, orderValue float64) (commission, platformRevenue float64) {
	if orderValue <= 0 {
		return 0, 0
	}
	rate := decimal.NewFromFloat(s.CommissionRate(ctx, pharmacyID))
	value := decimal.NewFromFloat(orderValue)

	c := value.Mul(rate).Div(percentBase)
	p := value.Sub(c)
	return c.InexactFloat64(), p.InexactFloat64()
}

type groupAccum struct {
	sales  decimal.Decimal
	orders int
}

// Aggregate строит отчёт по выручке за последние timeframeDays дней.
// База предыдущего периода задаётся вызывающим; нулевая база — нулевой рост.
func (s *RevenueService) Aggregate(ctx context.Context, timeframeDays int, prior domain.PriorPeriod) (*domain.RevenueAnalytics, error) {
	if timeframeDays <= 0 {
		timeframeDays = 30
	}
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := dayStart.AddDate(0, 0, -(timeframeDays - 1))

	orders, err := s.orders.ListSince(ctx, from)
	if err != nil {
		return nil, err
	}

	var (
		totalRevenue = decimal.Zero
		refundAmount = decimal.Zero
		doctorComm   = decimal.Zero
		totalOrders  int
		returnCount  int

		pharmacySales  = map[string]decimal.Decimal{}
		pharmacyOrders = map[string]int{}
		categories     = map[string]*groupAccum{}
		cities         = map[string]*groupAccum{}
		doctors        = map[string]*groupAccum{}

		daily = map[string]*domain.DailyRevenue{}
	)

	doctorRate := decimal.NewFromFloat(doctorReferralRate)

	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		totalOrders++
		orderTotal := decimal.NewFromFloat(o.Total)
		totalRevenue = totalRevenue.Add(orderTotal)

		if o.Status == domain.OrderStatusReturned {
			returnCount++
			refundAmount = refundAmount.Add(orderTotal)
		}

		if o.DoctorID != "" {
			doctorComm = doctorComm.Add(orderTotal.Mul(doctorRate).Div(percentBase))
			accumGroup(doctors, o.DoctorID, orderTotal)
		}
		accumGroup(cities, o.CityID, orderTotal)

		seen := map[string]bool{}
		for _, it := range o.Items {
			itemTotal := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(it.Quantity))
			pharmacySales[it.PharmacyID] = pharmacySales[it.PharmacyID].Add(itemTotal)
			if !seen[it.PharmacyID] {
				seen[it.PharmacyID] = true
				pharmacyOrders[it.PharmacyID]++
			}
			accumGroup(categories, it.Category, itemTotal)
		}

		day := o.CreatedAt.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &domain.DailyRevenue{Date: day}
			daily[day] = d
		}
		d.Revenue += o.Total
		d.Orders++
		for _, it := range o.Items {
			d.Commission += it.Commission
		}
	}

	// per-pharmacy commission split on accumulated sales
	pharmacyRollup := make([]domain.PharmacyRevenue, 0, len(pharmacySales))
	totalCommission := decimal.Zero
	platformRevenue := decimal.Zero
	for id, sales := range pharmacySales {
		rate := s.CommissionRate(ctx, id)
		commission := sales.Mul(decimal.NewFromFloat(rate)).Div(percentBase)
		platform := sales.Sub(commission)
		totalCommission = totalCommission.Add(commission)
		platformRevenue = platformRevenue.Add(platform)

		name := ""
		if ph, err := s.pharmacies.GetByID(ctx, id); err == nil {
			name = ph.Name
		}
		count := pharmacyOrders[id]
		pharmacyRollup = append(pharmacyRollup, domain.PharmacyRevenue{
			PharmacyID:      id,
			PharmacyName:    name,
			TotalSales:      sales.InexactFloat64(),
			Orders:          count,
			CommissionRate:  rate,
			Commission:      commission.InexactFloat64(),
			PlatformRevenue: platform.InexactFloat64(),
			AvgOrderValue:   safeAvg(sales, count),
			GrowthPercent:   growth(sales.InexactFloat64(), prior.SalesByPharmacy[id]),
		})
	}
	sort.Slice(pharmacyRollup, func(i, j int) bool {
		if pharmacyRollup[i].TotalSales != pharmacyRollup[j].TotalSales {
			return pharmacyRollup[i].TotalSales > pharmacyRollup[j].TotalSales
		}
		return pharmacyRollup[i].PharmacyID < pharmacyRollup[j].PharmacyID
	})

	// time series: one point per calendar day, ascending, gaps zero-filled
	series := make([]domain.DailyRevenue, 0, timeframeDays)
	for i := 0; i < timeframeDays; i++ {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		if d, ok := daily[day]; ok {
			d.PlatformRevenue = d.Revenue - d.Commission
			series = append(series, *d)
		} else {
			series = append(series, domain.DailyRevenue{Date: day})
		}
	}

	netRevenue := totalRevenue.Sub(refundAmount)
	returnRate := 0.0
	if totalOrders > 0 {
		returnRate = float64(returnCount) / float64(totalOrders)
	}

	analytics := &domain.RevenueAnalytics{
		TimeframeDays: timeframeDays,
		Overview: domain.RevenueOverview{
			TotalRevenue:    totalRevenue.InexactFloat64(),
			NetRevenue:      netRevenue.InexactFloat64(),
			GrossProfit:     netRevenue.Mul(decimal.NewFromFloat(grossMarginEstimate)).InexactFloat64(),
			TotalCommission: totalCommission.InexactFloat64(),
			PlatformRevenue: platformRevenue.InexactFloat64(),
			ReturnRate:      returnRate,
			RefundAmount:    refundAmount.InexactFloat64(),
		},
		Pharmacies: pharmacyRollup,
		Categories: summarize(categories),
		Cities:     summarize(cities),
		Doctors:    summarize(doctors),
		Breakdown: domain.CommissionBreakdown{
			PharmacyCommission: totalCommission.InexactFloat64(),
			DoctorCommission:   doctorComm.InexactFloat64(),
			PlatformRevenue:    platformRevenue.InexactFloat64(),
			TotalCommission:    totalCommission.Add(doctorComm).InexactFloat64(),
		},
		TimeSeries:    series,
		GrowthPercent: growth(totalRevenue.InexactFloat64(), prior.TotalSales),
	}
	return analytics, nil
}

func accumGroup(m map[string]*groupAccum, key string, amount decimal.Decimal) {
	g, ok := m[key]
	if !ok {
		g = &groupAccum{sales: decimal.Zero}
		m[key] = g
	}
	g.sales = g.sales.Add(amount)
	g.orders++
}

func summarize(m map[string]*groupAccum) []domain.GroupSummary {
	out := make([]domain.GroupSummary, 0, len(m))
	for key, g := range m {
		out = append(out, domain.GroupSummary{
			Key:           key,
			TotalSales:    g.sales.InexactFloat64(),
			Orders:        g.orders,
			AvgOrderValue: safeAvg(g.sales, g.orders),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// safeAvg среднее значение, 0 при пустой группе
func safeAvg(sales decimal.Decimal, count int) float64 {
	if count == 0 {
		return 0
	}
	return sales.Div(decimal.NewFromInt(int64(count))).InexactFloat64()
}

// growth процент роста к базе; нулевая база даёт 0
func growth(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / prior * 100
}

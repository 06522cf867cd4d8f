package service

import (
	"context"

	"storefront/models"

	"github.com/shopspring/decimal"
)

func (s *Service) SalesTotal(ctx context.Context) (decimal.Decimal, error) {
	return s.store.SalesTotal(ctx)
}

// SalesData returns revenue per day for the last 30 days that had orders.
func (s *Service) SalesData(ctx context.Context) ([]models.DailySales, error) {
	return s.store.SalesByDay(ctx, salesHistoryDays)
}

func (s *Service) CountOrders(ctx context.Context) (int64, error) {
	return s.store.CountOrders(ctx)
}

func (s *Service) SalesReport(ctx context.Context) ([]models.ProductSales, error) {
	return s.store.SalesByProduct(ctx)
}

package dto

import "github.com/flexprice/contractflow/internal/domain/revenue"

type RevenueAggregateResponse struct {
	*revenue.Result
}

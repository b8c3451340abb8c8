package types

import (
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
)

// RevenueFilter narrows the revenue roll-up. Period selects contracts whose
// start date lies in [PeriodStart, PeriodEnd).
type RevenueFilter struct {
	PeriodStart *time.Time `json:"period_start,omitempty" form:"period_start" time_format:"2006-01-02"`
	PeriodEnd   *time.Time `json:"period_end,omitempty" form:"period_end" time_format:"2006-01-02"`
	State       string     `json:"state,omitempty" form:"state"`
	ActiveOnly  *bool      `json:"active_only,omitempty" form:"active_only"`
}

func (f RevenueFilter) Period() TimeRangeFilter {
	return TimeRangeFilter{StartTime: f.PeriodStart, EndTime: f.PeriodEnd}
}

func (f RevenueFilter) Validate() error {
	if err := f.Period().Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Period end must be after period start").
			Mark(ierr.ErrValidation)
	}
	return nil
}

package domain

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// MaxDispatchBatch caps max_messages on a dispatch cycle.
const MaxDispatchBatch = 500

// MinDayCountBasis is the smallest accepted day-count denominator; 360 and
// 365 are the conventional values.
const MinDayCountBasis = 360

// ValidatePositiveAmount checks that a monetary amount is strictly positive.
func ValidatePositiveAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	return nil
}

// ValidateRate checks that an annual interest rate is non-negative.
func ValidateRate(rate decimal.Decimal) error {
	if rate.Sign() < 0 {
		return fmt.Errorf("annual_interest_rate must be non-negative, got %s", rate.String())
	}
	return nil
}

// ValidateBasis checks the day-count basis floor.
func ValidateBasis(basis int) error {
	if basis < MinDayCountBasis {
		return fmt.Errorf("day_count_basis must be at least %d, got %d", MinDayCountBasis, basis)
	}
	return nil
}

// ValidateMaxMessages bounds a dispatch cycle's batch size.
func ValidateMaxMessages(n int) error {
	if n < 1 || n > MaxDispatchBatch {
		return fmt.Errorf("max_messages must be between 1 and %d, got %d", MaxDispatchBatch, n)
	}
	return nil
}

// ValidateTargetURL checks that a webhook target is an absolute http(s) URL.
func ValidateTargetURL(target string) error {
	if target == "" {
		return fmt.Errorf("target_url is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target_url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target_url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target_url is missing a host")
	}
	return nil
}

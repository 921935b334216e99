package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Setting value types. The stored value is always a string; ValueType
// declares how to interpret and validate it.
const (
	ValueString  = "string"
	ValueNumber  = "number"
	ValueBoolean = "boolean"
	ValueJSON    = "json"
)

// Setting is one admin-configurable entry, keyed by category and key.
type Setting struct {
	Key         string    `json:"key"`
	Category    string    `json:"category"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks that Value parses under the declared ValueType.
func (s *Setting) Validate() error {
	switch s.ValueType {
	case ValueString, "":
		return nil
	case ValueNumber:
		if _, err := strconv.ParseFloat(s.Value, 64); err != nil {
			return fmt.Errorf("setting %s: %q is not a number", s.Key, s.Value)
		}
	case ValueBoolean:
		if _, err := strconv.ParseBool(s.Value); err != nil {
			return fmt.Errorf("setting %s: %q is not a boolean", s.Key, s.Value)
		}
	case ValueJSON:
		if !json.Valid([]byte(s.Value)) {
			return fmt.Errorf("setting %s: value is not valid JSON", s.Key)
		}
	default:
		return fmt.Errorf("setting %s: unknown value type %q", s.Key, s.ValueType)
	}
	return nil
}

// Number returns the value parsed as float64, or def when absent/invalid.
func (s *Setting) Number(def float64) float64 {
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return def
	}
	return v
}

// Well-known setting keys consulted by the ledger core.
const (
	SettingMinWithdrawal       = "min_withdrawal"
	SettingMaxWithdrawalPerDay = "max_withdrawal_per_day"
	SettingProcessingFee       = "processing_fee_percent"
	SettingMaxCommissionLevels = "max_commission_levels"
)

// WithdrawalLimits are the platform-wide limits applied to every
// withdrawal-eligibility check and commission distribution.
type WithdrawalLimits struct {
	MinWithdrawal        float64 `json:"min_withdrawal"`
	MaxWithdrawalPerDay  float64 `json:"max_withdrawal_per_day"`
	ProcessingFeePercent float64 `json:"processing_fee_percent"`
	MaxCommissionLevels  int     `json:"max_commission_levels"`
}

// DefaultWithdrawalLimits apply when no settings rows exist yet.
func DefaultWithdrawalLimits() WithdrawalLimits {
	return WithdrawalLimits{
		MinWithdrawal:        10,
		MaxWithdrawalPerDay:  10000,
		ProcessingFeePercent: 2,
		MaxCommissionLevels:  10,
	}
}

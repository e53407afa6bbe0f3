/**
 * @description
 * Commission rule engine. Selects the applicable rule for a conversion and
 * computes the commission value in integer cents. No floating-point
 * arithmetic is allowed anywhere in the commission path: percentage
 * commissions truncate toward zero so an affiliate is never over-credited.
 */

package app

import (
	"errors"

	"github.com/reflift/affiliate-service/internal/domain"
)

// DefaultCommissionRatePercent applies when no commission rule resolves.
const DefaultCommissionRatePercent = 15

var (
	ErrInvalidConversionAmount = errors.New("conversion amount must not be negative")
	ErrUnknownRuleType         = errors.New("unknown commission rule type")
)

// CommissionQuote is the output of the rule engine: the computed commission
// plus the rate and rule type that produced it, for the commission record.
type CommissionQuote struct {
	AmountCents int64
	Rate        int64
	RateType    string
}

// selectCommissionRule picks the rule flagged as default. Tier escalation on
// amount thresholds or affiliate volume is modeled on the rule record but
// deliberately not consulted here; it stays inert until product decides how
// tiers interact with the default.
func selectCommissionRule(rules []domain.CommissionRule) *domain.CommissionRule {
	for i := range rules {
		if rules[i].IsDefault {
			return &rules[i]
		}
	}
	return nil
}

// computeCommission applies a rule to a conversion amount. A nil rule falls
// back to the 15% default percentage. Percentage commissions use integer
// division, which truncates: floor(amount * rate / 100).
func computeCommission(amountCents int64, rule *domain.CommissionRule) (CommissionQuote, error) {
	if amountCents < 0 {
		return CommissionQuote{}, ErrInvalidConversionAmount
	}

	if rule == nil {
		return CommissionQuote{
			AmountCents: amountCents * DefaultCommissionRatePercent / 100,
			Rate:        DefaultCommissionRatePercent,
			RateType:    domain.RuleTypePercentage,
		}, nil
	}

	switch rule.Type {
	case domain.RuleTypePercentage:
		return CommissionQuote{
			AmountCents: amountCents * rule.Value / 100,
			Rate:        rule.Value,
			RateType:    domain.RuleTypePercentage,
		}, nil
	case domain.RuleTypeFlat:
		// Flat rules pay the configured cents value regardless of amount.
		return CommissionQuote{
			AmountCents: rule.Value,
			Rate:        rule.Value,
			RateType:    domain.RuleTypeFlat,
		}, nil
	default:
		return CommissionQuote{}, ErrUnknownRuleType
	}
}

package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/dukex/wflguard/pkg/catalog"
	"github.com/dukex/wflguard/pkg/models"
)

// CheckActions validates every action kind and the delayed-reboot parameters.
func CheckActions(seq models.Sequence) error {
	for path, step := range models.Walk(seq) {
		a, ok := step.(*models.Action)
		if !ok {
			continue
		}

		if !catalog.IsActionType(a.ActionType) {
			return violation(KindAllowList, path, a, fmt.Sprintf("unknown actionType %d", int(a.ActionType)))
		}

		if a.ActionType == models.ActionRebootDevice {
			if err := checkReboot(path, a); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkReboot(path models.Path, a *models.Action) error {
	p, err := a.RebootParams()
	if err != nil {
		return violation(KindAllowList, path.Field("parameters"), a, fmt.Sprintf("malformed Reboot parameters: %v", err))
	}

	if p.Mode == nil || *p.Mode != models.RebootModeDelayed {
		return nil
	}

	minutes, ok := integerValue(p.Minutes)
	if !ok || minutes <= 0 || minutes >= 60 {
		return violation(KindAllowList, path.Field("parameters"), a, "Reboot 'minutes' must be 1..59 when type==1")
	}

	return nil
}

// CheckRules validates operator, property kind and payload of every condition rule.
func CheckRules(seq models.Sequence) error {
	for path, step := range models.Walk(seq) {
		c, ok := step.(*models.Condition)
		if !ok {
			continue
		}

		if len(c.Rules) == 0 {
			return violation(KindStructural, path, c, "condition must have at least one rule")
		}

		for i, r := range c.Rules {
			if err := checkRule(path.At("rules", i), c, r); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkRule(path models.Path, c *models.Condition, r models.Rule) error {
	if r.Operator == nil || !catalog.IsOperator(*r.Operator) {
		return violation(KindAllowList, path, c, fmt.Sprintf("operator must be %d..%d", catalog.OperatorMin, catalog.OperatorMax))
	}

	if catalog.IsBlacklistedProperty(r.PropertyID) {
		return violation(KindAllowList, path, c, fmt.Sprintf("Not allowed rule propertyId '%s'", r.PropertyID))
	}

	if !catalog.IsRuleProperty(r.PropertyID) {
		return violation(KindAllowList, path, c,
			fmt.Sprintf("Disallowed rule propertyId '%s' (allowed: [Variable oSType scope])", r.PropertyID))
	}

	switch r.PropertyID {
	case models.PropertyOSType:
		code, ok := numberValue(r.Value)
		if !ok || code > math.MaxInt32 || !catalog.IsOSCode(int(code)) {
			return violation(KindAllowList, path, c, "oSType value must be 1,2,3")
		}
	case models.PropertyScope:
		id, ok := catalog.ScopeID(r.ScopeName)
		if !ok {
			return violation(KindAllowList, path, c, fmt.Sprintf("Unknown scopeName '%s'", r.ScopeName))
		}

		if r.ScopeID != nil && *r.ScopeID != id {
			return violation(KindAllowList, path, c,
				fmt.Sprintf("scopeId %d does not match scopeName '%s'", *r.ScopeID, r.ScopeName))
		}
	}

	return nil
}

// integerValue accepts what numberValue accepts plus digit strings.
func integerValue(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(s, 10, 64)

		return i, err == nil
	}

	return numberValue(v)
}

// numberValue accepts integral JSON numbers and native integers. Strings are rejected.
func numberValue(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}

		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			return 0, false
		}

		return int64(f), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64 {
			return 0, false
		}

		return int64(n), true
	default:
		return 0, false
	}
}

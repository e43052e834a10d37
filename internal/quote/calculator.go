package quote

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
)

// Pricing tables. Prices are in whole currency units; tier multipliers
// discount the subtotal for higher commitment tiers.
var (
	basePrices = map[string]decimal.Decimal{
		"landing":  decimal.NewFromInt(499),
		"business": decimal.NewFromInt(899),
		"booking":  decimal.NewFromInt(1199),
		"webshop":  decimal.NewFromInt(1499),
	}

	modulePrices = map[string]decimal.Decimal{
		"blog":       decimal.NewFromInt(89),
		"newsletter": decimal.NewFromInt(99),
		"chat":       decimal.NewFromInt(129),
		"analytics":  decimal.NewFromInt(149),
		"booking":    decimal.NewFromInt(159),
		"seo":        decimal.NewFromInt(179),
		"crm":        decimal.NewFromInt(199),
		"payments":   decimal.NewFromInt(249),
	}

	tierMultipliers = map[string]decimal.Decimal{
		"starter":    decimal.NewFromInt(1),
		"pro":        decimal.RequireFromString("0.9"),
		"enterprise": decimal.RequireFromString("0.8"),
	}
)

// Calculate prices a quote: base price for the portal kind, each selected
// module added on, and the subtotal scaled by the tier multiplier. Pure and
// deterministic; unknown portal kinds, modules, or tiers are rejected.
func Calculate(portalKind, userTier string, modules []string) (Breakdown, error) {
	base, ok := basePrices[portalKind]
	if !ok {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown portal kind").
			WithDetails(map[string]any{"portal_kind": portalKind})
	}
	multiplier, ok := tierMultipliers[userTier]
	if !ok {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown user tier").
			WithDetails(map[string]any{"user_tier": userTier})
	}

	lines := make([]ModuleLine, 0, len(modules))
	modulesTotal := decimal.Zero
	for _, name := range modules {
		price, ok := modulePrices[name]
		if !ok {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown module").
				WithDetails(map[string]any{"module": name})
		}
		lines = append(lines, ModuleLine{Name: name, Price: price})
		modulesTotal = modulesTotal.Add(price)
	}

	subtotal := base.Add(modulesTotal)
	total := subtotal.Mul(multiplier).Round(2)

	return Breakdown{
		Base:         base,
		Modules:      lines,
		ModulesTotal: modulesTotal,
		Subtotal:     subtotal,
		Multiplier:   multiplier,
		Total:        total,
	}, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

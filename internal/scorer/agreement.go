package scorer

import "github.com/alphatic/alphatic/internal/core"

// Classify compares the two scorers' action labels: both Buy or both Sell is
// Aligned, Buy against Sell is Conflict, and everything else, any pairing
// with Hold, or an unavailable adaptive score, is Mixed. An unavailable
// second opinion can never align or conflict with anything.
func Classify(technical core.TechnicalScore, adaptive core.AdaptiveScore) core.AgreementVerdict {
	if !adaptive.Available {
		return core.VerdictMixed
	}

	t, a := technical.Action, adaptive.Action
	switch {
	case t == core.ActionBuy && a == core.ActionBuy,
		t == core.ActionSell && a == core.ActionSell:
		return core.VerdictAligned
	case t == core.ActionBuy && a == core.ActionSell,
		t == core.ActionSell && a == core.ActionBuy:
		return core.VerdictConflict
	default:
		return core.VerdictMixed
	}
}

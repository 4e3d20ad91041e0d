package verifier

import "github.com/luansvb/guardinia/pkg/config"

// Per-million-token pricing per tier, USD.
type tierPricing struct {
	inputPerM  float64
	outputPerM float64
}

var pricing = map[config.VerifierTier]tierPricing{
	config.TierBasic: {inputPerM: 0.25, outputPerM: 1.25},
	config.TierDeep:  {inputPerM: 3.00, outputPerM: 15.00},
}

// Cost returns the USD cost of one pass given token usage.
func Cost(tier config.VerifierTier, tokensIn, tokensOut int) float64 {
	p, ok := pricing[tier]
	if !ok {
		p = pricing[config.TierBasic]
	}
	return float64(tokensIn)/1_000_000*p.inputPerM + float64(tokensOut)/1_000_000*p.outputPerM
}

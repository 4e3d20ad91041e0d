package verifier

import (
	"testing"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/heuristics"
)

func testConfig() *config.Config {
	return &config.Config{
		CognitiveZoneMin:      20,
		CognitiveZoneMax:      150,
		BasicTierMax:          100,
		EscalationScoreMin:    30,
		PressureEstimateMin:   15,
		RepassProbLow:         40,
		RepassProbHigh:        60,
		RepassManipulationMin: 8,
	}
}

func TestDecideZones(t *testing.T) {
	cfg := testConfig()
	critical := map[string]bool{heuristics.CategoryFinancial: true}

	tests := []struct {
		name         string
		score        int
		active       map[string]bool
		signals      heuristics.SignalSet
		text         string
		wantEscalate bool
		wantTier     config.VerifierTier
	}{
		{"below zone", 10, critical, nil, "", false, ""},
		{"at zone floor with critical", 20, critical, nil, "", true, config.TierBasic},
		{"zone ceiling skips", 150, critical, nil, "", false, ""},
		{"no trigger", 25, map[string]bool{}, nil, "texto neutro", false, ""},
		{
			"authority alone triggers", 25,
			map[string]bool{heuristics.CategoryAuthority: true}, nil, "texto neutro",
			true, config.TierBasic,
		},
		{"score trigger", 35, map[string]bool{}, nil, "texto neutro", true, config.TierBasic},
		{
			"pressure trigger", 22, map[string]bool{},
			heuristics.SignalSet{heuristics.SignalThreat: 1.1}, "texto neutro",
			true, config.TierBasic,
		},
		{"url trigger", 22, map[string]bool{}, nil, "veja https://bit.ly/x", true, config.TierBasic},
		{"deep tier above basic max", 120, critical, nil, "", true, config.TierDeep},
		{"basic at boundary", 100, critical, nil, "", true, config.TierBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(cfg, tt.score, tt.active, tt.signals, tt.text)
			if d.Escalate != tt.wantEscalate {
				t.Fatalf("Escalate = %v (reason %s), want %v", d.Escalate, d.Reason, tt.wantEscalate)
			}
			if d.Escalate && d.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", d.Tier, tt.wantTier)
			}
		})
	}
}

func TestNeedsSecondPass(t *testing.T) {
	cfg := testConfig()
	base := Response{FraudProbability: 90, ManipulationLevel: 3, Subtype: "falsa central"}

	tests := []struct {
		name   string
		mutate func(*Response)
		want   bool
	}{
		{"confident verdict", func(r *Response) {}, false},
		{"ambiguous band low edge", func(r *Response) { r.FraudProbability = 40 }, true},
		{"ambiguous band high edge", func(r *Response) { r.FraudProbability = 60 }, true},
		{"just outside band", func(r *Response) { r.FraudProbability = 61 }, false},
		{"high manipulation", func(r *Response) { r.ManipulationLevel = 8 }, true},
		{"contradiction marker", func(r *Response) { r.Subtype = "narrativa com contradição interna" }, true},
		{"inconsistency marker", func(r *Response) { r.Subtype = "inconsistência de valores" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := base
			tt.mutate(&resp)
			if got := NeedsSecondPass(cfg, &resp); got != tt.want {
				t.Errorf("NeedsSecondPass = %v, want %v", got, tt.want)
			}
		})
	}

	if NeedsSecondPass(cfg, nil) {
		t.Error("nil response must not request a second pass")
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		tier      config.VerifierTier
		in, out   int
		want      float64
		tolerance float64
	}{
		{config.TierBasic, 1_000_000, 0, 0.25, 1e-9},
		{config.TierBasic, 0, 1_000_000, 1.25, 1e-9},
		{config.TierDeep, 1_000_000, 1_000_000, 18.00, 1e-9},
		{config.TierDeep, 500, 200, 0.0045, 1e-9},
	}
	for _, tt := range tests {
		got := Cost(tt.tier, tt.in, tt.out)
		if diff := got - tt.want; diff > tt.tolerance || diff < -tt.tolerance {
			t.Errorf("Cost(%s, %d, %d) = %v, want %v", tt.tier, tt.in, tt.out, got, tt.want)
		}
	}
}

package heuristics

import (
	"math"
	"testing"
)

func TestExtractSignals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]float64
	}{
		{
			name: "money request",
			text: "faz um pix pra mim",
			want: map[string]float64{SignalMoneyRequest: 1.0},
		},
		{
			name: "money need phrasing",
			text: "preciso muito de dinheiro hoje",
			want: map[string]float64{SignalMoneyRequest: 1.0},
		},
		{
			name: "authority claim",
			text: "Sou do banco, setor de fraude",
			want: map[string]float64{SignalAuthority: 1.0},
		},
		{
			name: "urgency saturates",
			text: "URGENTE agora imediato imediatamente hoje mesmo",
			want: map[string]float64{SignalUrgency: 2.4},
		},
		{
			name: "isolation",
			text: "não conta pra ninguém, segredo nosso",
			want: map[string]float64{SignalIsolation: 1.2},
		},
		{
			name: "threat",
			text: "sua conta será bloqueada, bloqueio em 24h",
			want: map[string]float64{SignalThreat: 1.1},
		},
		{
			name: "investigative question",
			text: "Recebi essa mensagem, isso é golpe?",
			want: map[string]float64{SignalInvestigative: -1.5},
		},
		{
			name: "neutral",
			text: "Oi, tudo bem?",
			want: map[string]float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSignals(NewMessage(tt.text))
			if len(got) != len(tt.want) {
				t.Fatalf("signals = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if math.Abs(got[k]-v) > 1e-9 {
					t.Errorf("signal %s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestPositiveSumExcludesInvestigative(t *testing.T) {
	s := SignalSet{SignalMoneyRequest: 1.0, SignalUrgency: 0.8, SignalInvestigative: -1.5}
	if got := s.PositiveSum(); math.Abs(got-1.8) > 1e-9 {
		t.Errorf("PositiveSum = %v, want 1.8", got)
	}
	if !s.Investigative() {
		t.Error("Investigative() = false, want true")
	}
}

func TestPressureIndex(t *testing.T) {
	signals := SignalSet{SignalUrgency: 2.4, SignalThreat: 1.1, SignalIsolation: 1.2}
	raw := "PAGUE AGORA!!! ou sua conta será bloqueada!!!"
	ipp, reasons := PressureIndex(signals, raw)

	// urgency 24 + threat 22 + isolation 30 alone exceed the extreme band.
	if ipp < 25 {
		t.Errorf("ipp = %v, want >= 25", ipp)
	}
	if len(reasons) != 1 {
		t.Fatalf("reasons = %v, want exactly one graded reason", reasons)
	}
}

func TestPressureIndexQuietText(t *testing.T) {
	ipp, reasons := PressureIndex(SignalSet{}, "tudo certo por aqui")
	if ipp >= 5 {
		t.Errorf("ipp = %v, want below the moderate band", ipp)
	}
	if len(reasons) != 0 {
		t.Errorf("reasons = %v, want none", reasons)
	}
}

func TestPressureEstimate(t *testing.T) {
	signals := SignalSet{SignalUrgency: 0.8, SignalThreat: 1.1}
	if got := PressureEstimate(signals); math.Abs(got-30) > 1e-9 {
		t.Errorf("PressureEstimate = %v, want 30", got)
	}
}

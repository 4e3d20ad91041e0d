package heuristics

import (
	"os"
	"path/filepath"
	"testing"
)

// The cap table is the engine's main tuning surface: several detectors can
// emit raw subtotals well past 140, so the effective score range of every
// category rides on these ceilings. Any edit must be deliberate and land
// here first.
func TestDefaultCapsPinned(t *testing.T) {
	want := map[string]int{
		CategoryPhishing:          70,
		CategorySocialEngineering: 80,
		CategoryFinancial:         70,
		CategoryMalware:           70,
		CategoryCrypto:            60,
		CategoryInfrastructure:    50,
		CategoryJob:               50,
		CategoryEcommerce:         50,
		CategoryURL:               40,
		CategoryUrgency:           50,
		CategoryShortener:         50,
		CategorySuspiciousDomain:  50,
		CategoryFakeReceipt:       100,
		CategoryAuthority:         60,
		CategoryEmotional:         50,
	}
	got := DefaultCaps()
	if len(got) != len(want) {
		t.Fatalf("cap table has %d entries, want %d", len(got), len(want))
	}
	for cat, ceiling := range want {
		if got[cat] != ceiling {
			t.Errorf("cap[%s] = %d, want %d", cat, got[cat], ceiling)
		}
	}
	if DefaultCap != 50 {
		t.Errorf("default cap = %d, want 50", DefaultCap)
	}
}

func TestDefaultCombosPinned(t *testing.T) {
	want := map[string]int{
		"FINANCEIRO+URL":               70,
		"FINANCEIRO+ENCURTADOR":        90,
		"ENGENHARIA_SOCIAL+PHISHING":   90,
		"ENGENHARIA_SOCIAL+FINANCEIRO": 80,
		"AUTORIDADE+FINANCEIRO":        85,
		"EMOCIONAL+FINANCEIRO":         70,
	}
	combos := DefaultCombos()
	if len(combos) != len(want) {
		t.Fatalf("combo table has %d entries, want %d", len(combos), len(want))
	}
	for _, combo := range combos {
		key := combo.Categories[0] + "+" + combo.Categories[1]
		if want[key] != combo.Bonus {
			t.Errorf("combo %s bonus = %d, want %d", key, combo.Bonus, want[key])
		}
	}
}

func TestLoadTunablesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardinia.yaml")
	yaml := `
caps:
  PHISHING: 90
default_cap: 40
combos:
  - categories: [PHISHING, URL]
    bonus: 55
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	tunables, err := LoadTunables(path)
	if err != nil {
		t.Fatal(err)
	}
	if tunables.CapFor(CategoryPhishing) != 90 {
		t.Errorf("overridden cap = %d, want 90", tunables.CapFor(CategoryPhishing))
	}
	if tunables.CapFor("DESCONHECIDA") != 40 {
		t.Errorf("default cap = %d, want overridden 40", tunables.CapFor("DESCONHECIDA"))
	}
	if len(tunables.Combos) != 1 || tunables.Combos[0].Bonus != 55 {
		t.Errorf("combos not replaced: %v", tunables.Combos)
	}
	// Untouched sections keep the compiled-in defaults.
	if len(tunables.Signatures) != len(DefaultSignatures()) {
		t.Errorf("signatures should keep defaults, got %d", len(tunables.Signatures))
	}
}

func TestLoadTunablesMissingFile(t *testing.T) {
	if _, err := LoadTunables("/nonexistent/guardinia.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	tunables, err := LoadTunables("")
	if err != nil || tunables.CapFor(CategoryFakeReceipt) != 100 {
		t.Errorf("empty path should yield defaults, got %v %v", tunables, err)
	}
}

package heuristics

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Fraud categories. Heuristic contributions are grouped and capped per
// category; the names are domain vocabulary and stay in Portuguese.
const (
	CategoryPhishing          = "PHISHING"
	CategorySocialEngineering = "ENGENHARIA_SOCIAL"
	CategoryFinancial         = "FINANCEIRO"
	CategoryMalware           = "MALWARE"
	CategoryCrypto            = "CRYPTO"
	CategoryInfrastructure    = "INFRAESTRUTURA"
	CategoryJob               = "TRABALHO"
	CategoryEcommerce         = "ECOMMERCE"
	CategoryURL               = "URL"
	CategoryUrgency           = "URGÊNCIA"
	CategoryShortener         = "ENCURTADOR"
	CategorySuspiciousDomain  = "DOMINIO_SUSPEITO"
	CategoryFakeReceipt       = "FALSO_COMPROVANTE"
	CategoryAuthority         = "AUTORIDADE"
	CategoryEmotional         = "EMOCIONAL"
)

// DefaultCap bounds any category without an explicit ceiling.
const DefaultCap = 50

// DefaultCaps returns the per-category score ceilings. The table is the
// main tuning surface of the whole engine: raising a ceiling widens the
// effective score range of every rule in that category, so edits must go
// through the regression tests in caps_test.go.
func DefaultCaps() map[string]int {
	return map[string]int{
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
}

// CriticalCategories are the vectors whose simultaneous activation marks a
// multi-pronged attack and drives both escalation and non-linear
// amplification.
var CriticalCategories = []string{CategoryPhishing, CategorySocialEngineering, CategoryFinancial}

// ComboBonus is a flat score bonus awarded when every category in the
// combination is simultaneously active.
type ComboBonus struct {
	Categories []string `yaml:"categories"`
	Bonus      int      `yaml:"bonus"`
}

// DefaultCombos returns the critical-combination bonus table.
func DefaultCombos() []ComboBonus {
	return []ComboBonus{
		{Categories: []string{CategoryFinancial, CategoryURL}, Bonus: 70},
		{Categories: []string{CategoryFinancial, CategoryShortener}, Bonus: 90},
		{Categories: []string{CategorySocialEngineering, CategoryPhishing}, Bonus: 90},
		{Categories: []string{CategorySocialEngineering, CategoryFinancial}, Bonus: 80},
		{Categories: []string{CategoryAuthority, CategoryFinancial}, Bonus: 85},
		{Categories: []string{CategoryEmotional, CategoryFinancial}, Bonus: 70},
	}
}

// Tunables collects the score tables that can be overridden from a YAML
// file without recompiling. Zero-valued sections keep their compiled-in
// defaults.
type Tunables struct {
	Caps       map[string]int  `yaml:"caps"`
	DefaultCap int             `yaml:"default_cap"`
	Combos     []ComboBonus    `yaml:"combos"`
	Signatures []SignatureSpec `yaml:"signatures"`
}

// DefaultTunables returns the compiled-in tables.
func DefaultTunables() *Tunables {
	return &Tunables{
		Caps:       DefaultCaps(),
		DefaultCap: DefaultCap,
		Combos:     DefaultCombos(),
		Signatures: DefaultSignatures(),
	}
}

// LoadTunables reads overrides from path on top of the defaults. A missing
// section in the file keeps the default table; a present section replaces
// it wholesale.
func LoadTunables(path string) (*Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tunables %s: %w", path, err)
	}
	var overrides Tunables
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing tunables %s: %w", path, err)
	}
	if len(overrides.Caps) > 0 {
		t.Caps = overrides.Caps
	}
	if overrides.DefaultCap > 0 {
		t.DefaultCap = overrides.DefaultCap
	}
	if len(overrides.Combos) > 0 {
		t.Combos = overrides.Combos
	}
	if len(overrides.Signatures) > 0 {
		t.Signatures = overrides.Signatures
	}
	return t, nil
}

// CapFor returns the ceiling for a category.
func (t *Tunables) CapFor(category string) int {
	if c, ok := t.Caps[category]; ok {
		return c
	}
	return t.DefaultCap
}

// SortedCategories returns the cap table's categories in stable order,
// used when emitting indicators.
func (t *Tunables) SortedCategories() []string {
	names := make([]string, 0, len(t.Caps))
	for name := range t.Caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

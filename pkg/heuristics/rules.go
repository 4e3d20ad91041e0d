package heuristics

// Boolean rule weights.
const (
	phishingWeight         = 35
	authorityWeight        = 45
	urgencyActionWeight    = 30
	moneyRequestWeight     = 30
	urlWeight              = 25
	shortenerWeight        = 35
	suspiciousDomainWeight = 40
)

// GroupPhishingLink throttles the highly correlated link-based rule
// family: beyond two activations in one message, extra hits add nothing.
const GroupPhishingLink = "PHISHING_LINK"

// DefaultRegistry builds the full production rule set in evaluation order:
// cheap boolean cues first, then the dynamic narrative detectors.
func DefaultRegistry(strict bool, tunables *Tunables) (*Registry, error) {
	if tunables == nil {
		tunables = DefaultTunables()
	}
	registry := NewRegistry(strict)
	rules := []Rule{
		{Name: "Phishing clássico", Category: CategoryPhishing, Weight: phishingWeight, Group: GroupPhishingLink, Detect: PhishingDetector},
		{Name: "Autoridade institucional falsa", Category: CategoryAuthority, Weight: authorityWeight, Detect: AuthorityDetector},
		{Name: "Urgência com ação", Category: CategoryUrgency, Weight: urgencyActionWeight, Detect: UrgencyActionDetector},
		{Name: "Pedido de transferência direta", Category: CategoryFinancial, Weight: moneyRequestWeight, Detect: MoneyRequestDetector},
		{Name: "Link detectado", Category: CategoryURL, Weight: urlWeight, Group: GroupPhishingLink, Detect: URLDetector},
		{Name: "Encurtador de link", Category: CategoryShortener, Weight: shortenerWeight, Group: GroupPhishingLink, Detect: ShortenerDetector},
		{Name: "Domínio suspeito", Category: CategorySuspiciousDomain, Weight: suspiciousDomainWeight, Group: GroupPhishingLink, Detect: SuspiciousDomainDetector},
		{Name: "Assinaturas de golpe", Category: CategorySocialEngineering, Weight: 0, Detect: SignatureDetector(tunables.Signatures)},
		{Name: "Progressão financeira", Category: CategoryFinancial, Weight: 0, Detect: FinancialProgressionDetector},
		{Name: "Retorno irreal", Category: CategorySocialEngineering, Weight: 0, Detect: UnrealisticReturnDetector},
		{Name: "Comprovante falso", Category: CategoryFakeReceipt, Weight: 0, Detect: FakeReceiptDetector},
	}
	for _, rule := range rules {
		if err := registry.Register(rule); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

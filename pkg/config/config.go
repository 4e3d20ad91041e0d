package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// VerifierTier identifies which model tier a cognitive verification runs on.
type VerifierTier string

const (
	TierBasic VerifierTier = "basic" // fast/cheap model for mildly ambiguous cases
	TierDeep  VerifierTier = "deep"  // expensive model for scores near the scam threshold
)

// Config holds global settings for the GuardinIA engine and gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Verifier (cognitive tier) ===
	VerifierBaseURL    string // OpenAI-compatible chat completions base URL
	VerifierAPIKey     string // API key for the verifier endpoint
	VerifierBasicModel string // model id used for basic-tier passes
	VerifierDeepModel  string // model id used for deep-tier passes
	VerifierTimeoutMs  int    // per-call timeout in milliseconds (default: 8000)

	// === Escalation zones (heuristic score space, 0-200) ===
	CognitiveZoneMin    int // below this: safe without external call (default: 20)
	CognitiveZoneMax    int // at or above this: confidently scam, no call (default: 150)
	BasicTierMax        int // score <= this inside the zone uses the basic tier (default: 100)
	EscalationScoreMin  int // secondary trigger: score >= this escalates (default: 30)
	PressureEstimateMin int // secondary trigger: urgency/threat estimate >= this (default: 15)

	// === Double-pass controller ===
	RepassProbLow         int // ambiguous probability band lower bound (default: 40)
	RepassProbHigh        int // ambiguous probability band upper bound (default: 60)
	RepassManipulationMin int // manipulation level forcing a deep re-pass (default: 8)

	// === Fusion ===
	DivergenceThreshold int     // |H-B| above this records a divergence event (default: 80)
	HighHeuristicWeight float64 // heuristic weight when H >= 100 (default: 0.7)
	InvestigativeFactor float64 // dampening when the user is asking, not being scammed (default: 0.7)
	CriticalAmplifier   float64 // multiplier when >=3 critical categories fire (default: 1.15)

	// === Semantic layer (optional) ===
	EnableSemantics   bool   // enable embedding similarity signature matching
	EmbeddingBaseURL  string // OpenAI-compatible embeddings endpoint
	EmbeddingAPIKey   string
	EmbeddingModel    string
	SemanticThreshold float64 // minimum cosine similarity to contribute score (default: 0.78)

	// === Stores ===
	RedisAddr     string // host:port of the cache/metrics store; empty disables it
	RedisPassword string
	PostgresDSN   string // audit log connection string; empty disables the audit log
	CacheTTL      time.Duration

	// === Rate limiting ===
	RateLimitPerMinute int // messages per sender per minute (default: 10)

	// === WhatsApp gateway ===
	WhatsAppToken       string // Cloud API bearer token
	WhatsAppPhoneID     string // sending phone number id
	WhatsAppVerifyToken string // webhook GET verification token
	WhatsAppAppSecret   string // HMAC secret for X-Hub-Signature-256

	// === URL reputation ===
	SafeBrowsingAPIKey      string   // empty disables the Safe Browsing check
	SafeBrowsingThreatTypes []string // threat lists to query

	// === Tunables file ===
	TunablesPath string // optional guardinia.yaml overriding caps/combos/signatures

	// === Registry ===
	StrictRules bool // abort startup on a malformed rule (development fail-fast)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		VerifierBaseURL:    GetEnv("GUARDINIA_VERIFIER_BASE_URL", "https://openrouter.ai/api/v1"),
		VerifierAPIKey:     GetEnv("GUARDINIA_VERIFIER_API_KEY", os.Getenv("OPENROUTER_API_KEY")),
		VerifierBasicModel: GetEnv("GUARDINIA_VERIFIER_BASIC_MODEL", "anthropic/claude-3-haiku"),
		VerifierDeepModel:  GetEnv("GUARDINIA_VERIFIER_DEEP_MODEL", "anthropic/claude-3.5-sonnet"),
		VerifierTimeoutMs:  GetEnvInt("GUARDINIA_VERIFIER_TIMEOUT_MS", 8000),

		CognitiveZoneMin:    GetEnvInt("GUARDINIA_ZONE_MIN", 20),
		CognitiveZoneMax:    GetEnvInt("GUARDINIA_ZONE_MAX", 150),
		BasicTierMax:        GetEnvInt("GUARDINIA_BASIC_TIER_MAX", 100),
		EscalationScoreMin:  GetEnvInt("GUARDINIA_ESCALATION_SCORE_MIN", 30),
		PressureEstimateMin: GetEnvInt("GUARDINIA_PRESSURE_TRIGGER", 15),

		RepassProbLow:         GetEnvInt("GUARDINIA_REPASS_PROB_LOW", 40),
		RepassProbHigh:        GetEnvInt("GUARDINIA_REPASS_PROB_HIGH", 60),
		RepassManipulationMin: GetEnvInt("GUARDINIA_REPASS_MANIP_MIN", 8),

		DivergenceThreshold: GetEnvInt("GUARDINIA_DIVERGENCE_THRESHOLD", 80),
		HighHeuristicWeight: GetEnvFloat("GUARDINIA_HIGH_HEURISTIC_WEIGHT", 0.7),
		InvestigativeFactor: GetEnvFloat("GUARDINIA_INVESTIGATIVE_FACTOR", 0.7),
		CriticalAmplifier:   GetEnvFloat("GUARDINIA_CRITICAL_AMPLIFIER", 1.15),

		EnableSemantics:   GetEnvBool("GUARDINIA_ENABLE_SEMANTICS", false),
		EmbeddingBaseURL:  GetEnv("GUARDINIA_EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingAPIKey:   GetEnv("GUARDINIA_EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
		EmbeddingModel:    GetEnv("GUARDINIA_EMBEDDING_MODEL", "text-embedding-3-small"),
		SemanticThreshold: GetEnvFloat("GUARDINIA_SEMANTIC_THRESHOLD", 0.78),

		RedisAddr:     GetEnv("GUARDINIA_REDIS_ADDR", ""),
		RedisPassword: GetEnv("GUARDINIA_REDIS_PASSWORD", ""),
		PostgresDSN:   GetEnv("GUARDINIA_POSTGRES_DSN", ""),
		CacheTTL:      time.Duration(GetEnvInt("GUARDINIA_CACHE_TTL_HOURS", 168)) * time.Hour,

		RateLimitPerMinute: GetEnvInt("GUARDINIA_RATE_LIMIT_PER_MIN", 10),

		WhatsAppToken:       GetEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:     GetEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppVerifyToken: GetEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:   GetEnv("WHATSAPP_APP_SECRET", ""),

		SafeBrowsingAPIKey: GetEnv("GOOGLE_SAFE_BROWSING_KEY", ""),
		SafeBrowsingThreatTypes: GetEnvSlice("GUARDINIA_SB_THREAT_TYPES",
			[]string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}),

		TunablesPath: GetEnv("GUARDINIA_TUNABLES", ""),

		StrictRules: GetEnvBool("GUARDINIA_STRICT_RULES", !IsProduction()),
	}
}

// IsProduction reports whether GUARDINIA_ENV marks a production deployment.
func IsProduction() bool {
	env := strings.ToLower(os.Getenv("GUARDINIA_ENV"))
	return env == "production" || env == "prod"
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// RequiredSecret defines a required environment variable for startup validation.
type RequiredSecret struct {
	Name        string // environment variable name
	Description string // human-readable description
	Production  bool   // required in production only (false = required always)
}

// CriticalSecrets returns the list of secrets required for the gateway to operate.
func CriticalSecrets() []RequiredSecret {
	return []RequiredSecret{
		{Name: "GUARDINIA_VERIFIER_API_KEY", Description: "API key for the cognitive verifier", Production: true},
		{Name: "WHATSAPP_APP_SECRET", Description: "HMAC secret for webhook signature validation", Production: true},
		{Name: "WHATSAPP_VERIFY_TOKEN", Description: "webhook verification token", Production: true},
	}
}

// Validate checks that all required configuration is present.
// In production mode, this returns an error if critical secrets are missing.
// In development mode, it logs warnings but allows startup for local testing.
func (c *Config) Validate() error {
	isProduction := IsProduction()

	var missing []string
	var warnings []string

	for _, secret := range CriticalSecrets() {
		if os.Getenv(secret.Name) != "" {
			continue
		}
		if secret.Production && !isProduction {
			warnings = append(warnings, secret.Name+" ("+secret.Description+")")
		} else {
			missing = append(missing, secret.Name+" ("+secret.Description+")")
		}
	}

	if c.CognitiveZoneMin >= c.CognitiveZoneMax {
		missing = append(missing, fmt.Sprintf("GUARDINIA_ZONE_MIN (%d) must be below GUARDINIA_ZONE_MAX (%d)", c.CognitiveZoneMin, c.CognitiveZoneMax))
	}
	if c.RepassProbLow > c.RepassProbHigh {
		missing = append(missing, "GUARDINIA_REPASS_PROB_LOW must not exceed GUARDINIA_REPASS_PROB_HIGH")
	}

	for _, w := range warnings {
		log.Printf("[STARTUP] Warning: missing optional secret: %s", w)
	}

	if len(missing) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before starting the server.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luansvb/guardinia/pkg/bot"
	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/engine"
	"github.com/luansvb/guardinia/pkg/heuristics"
	"github.com/luansvb/guardinia/pkg/safebrowsing"
	"github.com/luansvb/guardinia/pkg/semantic"
	"github.com/luansvb/guardinia/pkg/store"
	"github.com/luansvb/guardinia/pkg/verifier"
	"github.com/luansvb/guardinia/pkg/whatsapp"
)

const Version = "1.0.0"

// buildEngine assembles the scoring pipeline from configuration. Every
// optional layer logs whether it came up so a glance at startup output
// shows what this instance can do.
func buildEngine(cfg *config.Config) *engine.Engine {
	tunables := heuristics.DefaultTunables()
	if cfg.TunablesPath != "" {
		loaded, err := heuristics.LoadTunables(cfg.TunablesPath)
		if err != nil {
			log.Fatalf("tunables_load_failed | path=%s err=%v", cfg.TunablesPath, err)
		}
		tunables = loaded
		log.Printf("✓ tunables loaded | path=%s", cfg.TunablesPath)
	}

	registry, err := heuristics.DefaultRegistry(cfg.StrictRules, tunables)
	if err != nil {
		log.Fatalf("registry_init_failed | err=%v", err)
	}
	evaluator := heuristics.NewEvaluator(registry, tunables)

	var verifierClient engine.Verifier
	if cfg.VerifierAPIKey != "" {
		verifierClient = verifier.NewClient(cfg)
		log.Println("✓ cognitive verifier enabled")
	} else {
		log.Println("○ cognitive verifier disabled (no API key), heuristic-only scoring")
	}

	var matcher engine.SignatureMatcher
	switch {
	case !cfg.EnableSemantics:
		log.Println("○ semantic matcher disabled (GUARDINIA_ENABLE_SEMANTICS=false)")
	case cfg.EmbeddingAPIKey == "":
		log.Println("○ semantic matcher disabled (no embedding API key)")
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		m, err := semantic.New(ctx, cfg)
		cancel()
		if err != nil {
			log.Printf("○ semantic matcher disabled (seed failed: %v)", err)
		} else {
			matcher = m
			log.Println("✓ semantic matcher enabled (chromem-go)")
		}
	}

	return engine.New(cfg, evaluator, verifierClient, matcher)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := config.GetEnv("GUARDINIA_PORT", "3000")
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runHTTPServer(port)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: guardinia scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("GuardinIA v%s\n", Version)
		fmt.Println("Detector de golpes para WhatsApp")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("GuardinIA v%s - Detector de golpes para WhatsApp\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  guardinia serve [port]   Start the HTTP gateway (default: 3000)")
	fmt.Println("  guardinia scan <text>    Score one message from the command line")
	fmt.Println("  guardinia version        Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  GUARDINIA_VERIFIER_API_KEY  API key for the cognitive verifier")
	fmt.Println("  GUARDINIA_REDIS_ADDR        Redis address for cache and rate limiting")
	fmt.Println("  WHATSAPP_TOKEN              Cloud API token for the WhatsApp gateway")
	fmt.Println("  WHATSAPP_APP_SECRET         Webhook signature secret")
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIScan(text string) {
	cfg := config.NewDefaultConfig()
	eng := buildEngine(cfg)

	result := eng.Analyze(context.Background(), text)

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer(port string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	eng := buildEngine(cfg)

	cache := store.NewCache(cfg)
	if cache != nil {
		log.Printf("✓ redis cache enabled | addr=%s", cfg.RedisAddr)
	} else {
		log.Println("○ redis cache disabled (no address)")
	}

	audit, err := store.NewAudit(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("audit_init_failed | err=%v", err)
	}
	if audit != nil {
		log.Println("✓ postgres audit trail enabled")
	} else {
		log.Println("○ postgres audit trail disabled (no DSN)")
	}

	urls := safebrowsing.NewClient(cfg)
	if urls != nil {
		log.Println("✓ safe browsing lookups enabled")
	} else {
		log.Println("○ safe browsing lookups disabled (no API key)")
	}

	wa := whatsapp.NewClient(cfg)
	if wa != nil {
		log.Println("✓ whatsapp cloud api enabled")
	} else {
		log.Println("○ whatsapp cloud api disabled (no token/phone id)")
	}

	assistant := bot.New(cfg, eng, bot.Deps{
		Sender:  wa,
		Cache:   cache,
		Audit:   audit,
		URLs:    urls,
		Fetcher: wa,
	})

	app := fiber.New(fiber.Config{
		AppName: "GuardinIA",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Direct analysis endpoint, no WhatsApp involved.
	app.Post("/v1/analyze", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		return c.JSON(eng.Analyze(c.Context(), req.Text))
	})

	// Meta webhook subscription handshake.
	app.Get("/webhook", func(c fiber.Ctx) error {
		challenge, ok := whatsapp.VerifyHandshake(
			cfg.WhatsAppVerifyToken,
			c.Query("hub.mode"),
			c.Query("hub.verify_token"),
			c.Query("hub.challenge"),
		)
		if !ok {
			return c.SendStatus(403)
		}
		return c.SendString(challenge)
	})

	// Inbound messages. Meta retries on non-200 and expects a fast ack,
	// so processing happens off the request path.
	app.Post("/webhook", func(c fiber.Ctx) error {
		body := c.Body()
		if !whatsapp.ValidSignature(cfg.WhatsAppAppSecret, body, c.Get("X-Hub-Signature-256")) {
			log.Println("webhook_rejected | bad signature")
			return c.SendStatus(403)
		}
		messages, err := whatsapp.ParseWebhook(body)
		if err != nil {
			log.Printf("webhook_parse_failed | err=%v", err)
			return c.SendStatus(400)
		}
		for _, msg := range messages {
			go func(m whatsapp.Message) {
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				if err := assistant.HandleMessage(ctx, m); err != nil {
					log.Printf("handle_failed | id=%s err=%v", m.ID, err)
				}
			}(msg)
		}
		return c.SendStatus(200)
	})

	log.Printf("GuardinIA gateway starting on :%s", port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health       - Health check")
	log.Printf("  GET  /metrics      - Prometheus metrics")
	log.Printf("  POST /v1/analyze   - Direct message analysis")
	log.Printf("  GET  /webhook      - WhatsApp subscription handshake")
	log.Printf("  POST /webhook      - WhatsApp inbound messages")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}

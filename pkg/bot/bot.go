// Package bot orchestrates one WhatsApp conversation turn: rate limit,
// greeting shortcut, cache, URL reputation, the scoring pipeline and the
// reply, with persistence pushed off the hot path.
package bot

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/engine"
	"github.com/luansvb/guardinia/pkg/httputil"
	"github.com/luansvb/guardinia/pkg/metrics"
	"github.com/luansvb/guardinia/pkg/safebrowsing"
	"github.com/luansvb/guardinia/pkg/store"
	"github.com/luansvb/guardinia/pkg/textutil"
	"github.com/luansvb/guardinia/pkg/whatsapp"
)

// Sender delivers a text reply. *whatsapp.Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// URLChecker answers whether any URL is on a threat list.
// *safebrowsing.Client satisfies it; nil disables the layer.
type URLChecker interface {
	Check(ctx context.Context, urls []string) safebrowsing.Verdict
}

// MediaFetcher downloads media bytes for non-text messages.
// *whatsapp.Client satisfies it.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// Deps are the bot's collaborators. Sender is required; everything else
// may be nil and the corresponding step is skipped.
type Deps struct {
	Sender    Sender
	Cache     *store.Cache
	Audit     *store.Audit
	URLs      URLChecker
	Fetcher   MediaFetcher
	Extractor whatsapp.TextExtractor
}

// Bot wires the conversation flow together.
type Bot struct {
	cfg     *config.Config
	engine  *engine.Engine
	deps    Deps
	persist *httputil.Semaphore
}

// New assembles a bot. The persistence semaphore caps fire-and-forget
// goroutines so a burst cannot pile them up.
func New(cfg *config.Config, eng *engine.Engine, deps Deps) *Bot {
	return &Bot{cfg: cfg, engine: eng, deps: deps, persist: httputil.NewSemaphore(16)}
}

// HandleMessage processes one inbound message end to end and replies.
// Returned errors are delivery failures only; scoring problems degrade
// inside the pipeline.
func (b *Bot) HandleMessage(ctx context.Context, msg whatsapp.Message) error {
	if !b.deps.Cache.Allow(ctx, msg.From) {
		metrics.RateLimited.Inc()
		log.Printf("rate_limited | sender=%s", textutil.MaskPhone(msg.From))
		return b.deps.Sender.SendText(ctx, msg.From, throttleReply)
	}

	text, err := b.messageText(ctx, msg)
	if err != nil {
		return b.deps.Sender.SendText(ctx, msg.From, mediaUnsupportedReply)
	}

	if IsGreeting(text) {
		return b.deps.Sender.SendText(ctx, msg.From, greetingReply)
	}

	if cached := b.deps.Cache.Lookup(ctx, text); cached != nil {
		metrics.CacheHits.Inc()
		b.persistAsync(text, msg.From, cached, true)
		return b.deps.Sender.SendText(ctx, msg.From, FormatReply(cached))
	}

	result, advisories := b.analyze(ctx, text)
	b.persistAsync(text, msg.From, result, false)

	reply := FormatReply(result)
	for _, advisory := range advisories {
		reply += "\n\n" + advisory
	}
	return b.deps.Sender.SendText(ctx, msg.From, reply)
}

// analyze runs the URL reputation short-circuit and then the scoring
// pipeline. Advisories are returned separately so they survive reason
// truncation in the reply.
func (b *Bot) analyze(ctx context.Context, text string) (*engine.Result, []string) {
	if b.deps.URLs != nil {
		if urls := textutil.ExtractURLs(text); len(urls) > 0 {
			if b.deps.URLs.Check(ctx, urls) == safebrowsing.VerdictMalicious {
				return maliciousURLResult(text), nil
			}
		}
	}

	result := b.engine.Analyze(ctx, text)

	var advisories []string
	if _, ok := result.Indicators["investigative_dampening"]; ok {
		advisories = append(advisories, investigativeAdvisory)
	}
	if MentionsBankCredentials(text) && result.ColorTag != "verde" && !result.Invalid {
		advisories = append(advisories, bankAdvisory)
	}
	return result, advisories
}

// messageText resolves the analyzable text for a message, extracting it
// from media when an extractor is wired.
func (b *Bot) messageText(ctx context.Context, msg whatsapp.Message) (string, error) {
	if msg.Type == "text" {
		return msg.Text, nil
	}
	if b.deps.Extractor == nil || b.deps.Fetcher == nil {
		return "", errNoExtractor
	}
	data, mime, err := b.deps.Fetcher.DownloadMedia(ctx, msg.MediaID)
	if err != nil {
		return "", err
	}
	return b.deps.Extractor.Extract(ctx, mime, data)
}

// maliciousURLResult skips scoring entirely: a threat-list hit is a
// confirmed scam regardless of what the text says.
func maliciousURLResult(text string) *engine.Result {
	classification := engine.Classify(160)
	return &engine.Result{
		ID:                uuid.NewString(),
		StatusLabel:       classification.StatusLabel,
		ColorTag:          classification.ColorTag,
		Confidence:        classification.Confidence,
		TotalScore:        160,
		Reasons:           []string{"🔗 Link presente em lista de ameaças do Google Safe Browsing"},
		RecommendedAction: classification.RecommendedAction,
		Indicators:        map[string]any{"safebrowsing_hit": true},
		AnalyzedText:      text,
	}
}

// persistAsync caches the result, bumps the daily counters and appends
// the audit row off the request path. Dropped at capacity.
func (b *Bot) persistAsync(text, sender string, result *engine.Result, cacheHit bool) {
	if !b.persist.TryAcquire() {
		log.Printf("persist_dropped | total=%d", b.persist.DroppedCount())
		return
	}
	go func() {
		defer b.persist.Release()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cost, _ := result.Indicators["verifier_cost_usd"].(float64)
		if !cacheHit {
			b.deps.Cache.Save(ctx, text, result)
		}
		b.deps.Cache.RecordUsage(ctx, time.Now(), result, cost, cacheHit)
		b.deps.Audit.Record(ctx, text, sender, result)
	}()
}

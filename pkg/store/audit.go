package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luansvb/guardinia/pkg/engine"
	"github.com/luansvb/guardinia/pkg/textutil"
)

// Audit appends finished analyses to Postgres for later review. Raw
// message text is never stored, only its content hash and a masked
// sender. A nil Audit disables the trail.
type Audit struct {
	pool *pgxpool.Pool
}

// NewAudit connects a pool from the DSN, or returns nil when no DSN is
// configured.
func NewAudit(ctx context.Context, dsn string) (*Audit, error) {
	if dsn == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting audit pool: %w", err)
	}
	return &Audit{pool: pool}, nil
}

const insertAnalysis = `
INSERT INTO analyses (id, content_hash, sender_masked, color, total_score, confidence, verifier_tier, cost_usd, latency_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Record appends one analysis row. Failures are logged and swallowed;
// the audit trail is advisory.
func (a *Audit) Record(ctx context.Context, text, sender string, result *engine.Result) {
	if a == nil || result == nil {
		return
	}
	tier := ""
	if v, ok := result.Indicators["verifier_tier"].(string); ok {
		tier = v
	}
	cost, _ := result.Indicators["verifier_cost_usd"].(float64)
	latency, _ := result.Indicators["pipeline_ms"].(int64)
	_, err := a.pool.Exec(ctx, insertAnalysis,
		result.ID,
		textutil.ContentHash(text),
		textutil.MaskPhone(sender),
		result.ColorTag,
		result.TotalScore,
		result.Confidence,
		tier,
		cost,
		latency,
		time.Now().UTC(),
	)
	if err != nil {
		log.Printf("audit_record_failed | id=%s error=%v", result.ID, err)
	}
}

// Close shuts the pool down.
func (a *Audit) Close() {
	if a != nil {
		a.pool.Close()
	}
}

// Package safebrowsing classifies URLs against the Google Safe Browsing
// v4 Lookup API. The pipeline treats the verdict as one more signal: a
// MALICIOUS hit short-circuits into a red alert, UNKNOWN leaves the
// heuristics in charge.
package safebrowsing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/httputil"
)

// Verdict is the tri-state outcome of a lookup.
type Verdict string

const (
	// VerdictSafe means the API answered and flagged nothing.
	VerdictSafe Verdict = "SAFE"
	// VerdictMalicious means at least one threat match came back.
	VerdictMalicious Verdict = "MALICIOUS"
	// VerdictUnknown means the lookup could not be completed. Callers
	// must not treat this as safe.
	VerdictUnknown Verdict = "UNKNOWN"
)

const defaultEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

var defaultThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}

// Client calls the Lookup API. A nil client answers UNKNOWN for
// everything, which keeps the layer optional.
type Client struct {
	apiKey      string
	endpoint    string
	threatTypes []string
	httpClient  *http.Client
}

// NewClient returns a lookup client, or nil when no API key is
// configured.
func NewClient(cfg *config.Config) *Client {
	if cfg.SafeBrowsingAPIKey == "" {
		return nil
	}
	return &Client{
		apiKey:      cfg.SafeBrowsingAPIKey,
		endpoint:    defaultEndpoint,
		threatTypes: cfg.SafeBrowsingThreatTypes,
		httpClient:  httputil.FastClient(),
	}
}

type lookupRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string `json:"threatTypes"`
		PlatformTypes    []string `json:"platformTypes"`
		ThreatEntryTypes []string `json:"threatEntryTypes"`
		ThreatEntries    []struct {
			URL string `json:"url"`
		} `json:"threatEntries"`
	} `json:"threatInfo"`
}

type lookupResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
		Threat     struct {
			URL string `json:"url"`
		} `json:"threat"`
	} `json:"matches"`
}

// Check looks up the given URLs in one request. One retry on transport
// failure; any unrecoverable error yields UNKNOWN.
func (c *Client) Check(ctx context.Context, urls []string) Verdict {
	if c == nil || len(urls) == 0 {
		return VerdictUnknown
	}

	body, err := c.buildRequest(urls)
	if err != nil {
		return VerdictUnknown
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		verdict, err := c.lookup(ctx, body)
		if err == nil {
			return verdict
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	log.Printf("safebrowsing_lookup_failed | urls=%d error=%v", len(urls), lastErr)
	return VerdictUnknown
}

func (c *Client) buildRequest(urls []string) ([]byte, error) {
	types := c.threatTypes
	if len(types) == 0 {
		types = defaultThreatTypes
	}
	var req lookupRequest
	req.Client.ClientID = "guardinia"
	req.Client.ClientVersion = "1.0"
	req.ThreatInfo.ThreatTypes = types
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	for _, u := range urls {
		req.ThreatInfo.ThreatEntries = append(req.ThreatInfo.ThreatEntries, struct {
			URL string `json:"url"`
		}{URL: u})
	}
	return json.Marshal(req)
}

func (c *Client) lookup(ctx context.Context, body []byte) (Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return VerdictUnknown, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VerdictUnknown, err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		errBody, _ := httputil.ReadErrorBody(resp.Body)
		return VerdictUnknown, fmt.Errorf("safebrowsing: status %d: %s", resp.StatusCode, errBody)
	}

	raw, err := httputil.ReadResponseBody(resp.Body, 0)
	if err != nil {
		return VerdictUnknown, err
	}
	var parsed lookupResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return VerdictUnknown, fmt.Errorf("safebrowsing: decoding response: %w", err)
	}
	if len(parsed.Matches) > 0 {
		return VerdictMalicious, nil
	}
	return VerdictSafe, nil
}

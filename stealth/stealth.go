package stealth

import (
	"log/slog"
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	rodstealth "github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// PickUserAgent selects one user-agent string from the pool.
func PickUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

// Apply configures the page's fingerprint surface and must run before
// the first navigation: the injected patches only take effect for
// documents created after they are registered, and they are registered
// once per session, not per navigation.
//
// Returns the user agent that was applied.
func Apply(page *rod.Page) (string, error) {
	ua := PickUserAgent()
	if err := (proto.NetworkSetUserAgentOverride{UserAgent: ua}).Call(page); err != nil {
		return "", err
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headersMap()}).Call(page); err != nil {
		return "", err
	}

	// Baseline evasions from go-rod/stealth, then our own patch set on
	// top. Both are best-effort individually but a registration failure
	// is surfaced: crawling without them gets blocked immediately.
	if _, err := page.EvalOnNewDocument(rodstealth.JS); err != nil {
		return "", err
	}
	if _, err := page.EvalOnNewDocument(PatchScript()); err != nil {
		return "", err
	}

	slog.Debug("stealth applied", "userAgent", ua, "patches", len(FingerprintPatches))
	return ua, nil
}

// headersMap converts the fixed header set to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func headersMap() proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(ExtraHeaders))
	for k, v := range ExtraHeaders {
		m[k] = gson.New(v)
	}
	return m
}

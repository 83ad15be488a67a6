package stealth

import (
	"strings"
	"testing"
)

func TestPatchScriptIncludesEveryPatch(t *testing.T) {
	script := PatchScript()

	if !strings.HasPrefix(script, ";(() => {") || !strings.HasSuffix(script, "})();") {
		t.Fatalf("patch script must be a self-invoking snippet, got prefix %q", script[:20])
	}
	for _, p := range FingerprintPatches {
		if !strings.Contains(script, p.Property) {
			t.Errorf("patch script missing %s", p.Property)
		}
		if !strings.Contains(script, strings.TrimSpace(p.Script)) {
			t.Errorf("patch script missing body of %s", p.Property)
		}
	}
	if got, want := strings.Count(script, "try {"), len(FingerprintPatches); got != want {
		t.Errorf("expected %d isolated try blocks, got %d", want, got)
	}
}

func TestFingerprintPatchesWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range FingerprintPatches {
		if p.Property == "" {
			t.Error("patch with empty property name")
		}
		if strings.TrimSpace(p.Script) == "" {
			t.Errorf("patch %s has an empty script", p.Property)
		}
		if seen[p.Property] {
			t.Errorf("duplicate patch for %s", p.Property)
		}
		seen[p.Property] = true
	}

	for _, want := range []string{
		"navigator.webdriver",
		"navigator.plugins",
		"navigator.languages",
		"window.chrome",
		"WebGLRenderingContext.getParameter",
		"window.screen",
	} {
		if !seen[want] {
			t.Errorf("expected a patch for %s", want)
		}
	}
}

func TestPickUserAgentFromPool(t *testing.T) {
	pool := map[string]bool{}
	for _, ua := range UserAgents {
		pool[ua] = true
	}
	for i := 0; i < 50; i++ {
		if ua := PickUserAgent(); !pool[ua] {
			t.Fatalf("picked agent outside the pool: %q", ua)
		}
	}
}

func TestExtraHeaders(t *testing.T) {
	for _, key := range []string{
		"Accept", "Accept-Language", "Accept-Encoding",
		"sec-ch-ua", "Sec-Fetch-Mode", "Upgrade-Insecure-Requests",
	} {
		if ExtraHeaders[key] == "" {
			t.Errorf("missing header %s", key)
		}
	}
	if !strings.Contains(ExtraHeaders["Accept"], "text/html") {
		t.Errorf("Accept header should negotiate html, got %q", ExtraHeaders["Accept"])
	}
}

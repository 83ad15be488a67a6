// Package stealth mutates a page's fingerprint surface before the
// first navigation: user agent, request headers, and a set of
// page-context patches that mask the usual headless-automation tells.
package stealth

import "strings"

// Patch is one fingerprint override. The patch set is plain data so it
// can be reviewed and tested without a browser; Script is the page
// snippet installing the fake value.
type Patch struct {
	// Property names the surface being faked, e.g. "navigator.webdriver".
	Property string
	Script   string
}

// UserAgents is the pool of desktop user-agent strings one of which is
// picked at random per session.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36 Edg/118.0.2088.76",
}

// ExtraHeaders is the fixed header set applied to every session,
// mimicking a standard interactive Chrome request.
var ExtraHeaders = map[string]string{
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Encoding":           "gzip, deflate, br",
	"Cache-Control":             "max-age=0",
	"Connection":                "keep-alive",
	"sec-ch-ua":                 `"Not A(Brand";v="99", "Google Chrome";v="121", "Chromium";v="121"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Windows"`,
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// FingerprintPatches is the versioned patch set installed on every new
// document within a session. Order matters only in that earlier patches
// must not depend on later ones; each script is self-contained.
var FingerprintPatches = []Patch{
	{
		Property: "navigator.webdriver",
		Script: `
Object.defineProperty(navigator, 'webdriver', { get: () => false });
delete navigator.__proto__.webdriver;`,
	},
	{
		Property: "navigator.plugins",
		Script: `
Object.defineProperty(navigator, 'plugins', {
  get: () => [
    {
      0: {type: 'application/pdf', suffixes: 'pdf', description: 'Portable Document Format'},
      name: 'Chrome PDF Plugin',
      filename: 'internal-pdf-viewer',
      description: 'Portable Document Format',
      length: 1
    },
    {
      0: {type: 'application/pdf', suffixes: 'pdf', description: 'Portable Document Format'},
      name: 'Chrome PDF Viewer',
      filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai',
      description: 'Portable Document Format',
      length: 1
    },
    {
      0: {type: 'application/x-google-chrome-pdf', suffixes: 'pdf', description: 'Portable Document Format'},
      name: 'Native Client',
      filename: 'internal-nacl-plugin',
      description: 'Native Client Executable',
      length: 1
    }
  ]
});`,
	},
	{
		Property: "navigator.languages",
		Script: `
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });`,
	},
	{
		Property: "window.chrome",
		Script: `
window.chrome = { runtime: {} };
window.chrome.webstore = { onInstallStageChanged: {}, onDownloadProgress: {} };`,
	},
	{
		Property: "window.Notification",
		Script: `
if (!window.Notification) {
  window.Notification = { permission: 'default' };
}`,
	},
	{
		Property: "WebGLRenderingContext.getParameter",
		Script: `
const getParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function(parameter) {
  if (parameter === 37445) { return 'Intel Inc.'; }
  if (parameter === 37446) { return 'Intel Iris OpenGL Engine'; }
  return getParameter.apply(this, arguments);
};`,
	},
	{
		Property: "window.screen",
		Script: `
if (window.screen) {
  window.screen.width = 1920;
  window.screen.height = 1080;
  window.screen.availWidth = 1920;
  window.screen.availHeight = 1040;
  window.screen.colorDepth = 24;
  window.screen.pixelDepth = 24;
}`,
	},
}

// PatchScript assembles the patch set into one self-invoking
// page-context snippet suitable for EvalOnNewDocument. Each patch runs
// in its own try block so a failing one cannot take the rest down.
func PatchScript() string {
	var b strings.Builder
	b.WriteString(";(() => {\n")
	for _, p := range FingerprintPatches {
		b.WriteString("// ")
		b.WriteString(p.Property)
		b.WriteString("\ntry {\n")
		b.WriteString(p.Script)
		b.WriteString("\n} catch (e) {}\n")
	}
	b.WriteString("})();")
	return b.String()
}

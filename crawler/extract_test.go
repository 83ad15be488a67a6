package crawler

import (
	"fmt"
	"strings"
	"testing"
)

const googleCiteFixture = `<html><body>
<div id="rso">
  <div class="wrap">
    <h3>First Result Title</h3>
    <a href="https://one.example.com/page">link</a>
    <div><div><div><div><cite>one.example.com</cite></div></div></div></div>
    <span>This is the first description snippet</span>
  </div>
  <div class="wrap">
    <h3>Second Result Title</h3>
    <a href="https://two.example.com/page">link</a>
    <div><div><div><div><cite>two.example.com</cite></div></div></div></div>
    <span>This is the second description snippet</span>
  </div>
</div>
</body></html>`

const googleContainerFixture = `<html><body>
<div class="g">
  <a href="https://alpha.example.com/"><h3>Alpha</h3></a>
  <div class="VwiC3b">Alpha is a thing that exists on the internet.</div>
</div>
<div class="g">
  <a href="https://beta.example.com/"><h3>Beta</h3></a>
  <div class="IsZvec">Beta is another thing entirely.</div>
</div>
</body></html>`

const baiduFixture = `<html><body>
<div class="result c-container xpath-log">
  <h3><a href="https://www.baidu.com/link?url=aaa">百度第一条</a></h3>
  <span>第一条摘要内容</span>
</div>
<div class="result c-container">
  <h3><a href="https://www.baidu.com/link?url=bbb">百度第二条</a></h3>
  <span>第二条摘要内容</span>
</div>
</body></html>`

const headingFallbackFixture = `<html><body>
<div>
  <a href="https://fallback.example.com/page"><h3>Fallback Title</h3></a>
  <div>This description text is definitely long enough to qualify.</div>
</div>
<div>
  <h3>No Anchor Anywhere</h3>
</div>
</body></html>`

func TestExtractGoogleCiteStrategy(t *testing.T) {
	items := Extract(googleCiteFixture, Profiles["google"], 10)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Title != "First Result Title" {
		t.Errorf("unexpected first title: %q", items[0].Title)
	}
	if items[0].URL != "https://one.example.com/page" {
		t.Errorf("unexpected first url: %q", items[0].URL)
	}
	if items[1].Title != "Second Result Title" {
		t.Errorf("unexpected second title: %q", items[1].Title)
	}
	if items[0].Description == "" {
		t.Error("expected a description on the first item")
	}
}

func TestExtractGoogleContainerStrategy(t *testing.T) {
	items := Extract(googleContainerFixture, Profiles["google"], 10)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Alpha" || items[1].Title != "Beta" {
		t.Errorf("page order not preserved: %q, %q", items[0].Title, items[1].Title)
	}
	if items[0].Description != "Alpha is a thing that exists on the internet." {
		t.Errorf("unexpected description: %q", items[0].Description)
	}
}

func TestExtractBaiduPrimaryStrategy(t *testing.T) {
	items := Extract(baiduFixture, Profiles["baidu"], 10)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Title != "百度第一条" {
		t.Errorf("unexpected title: %q", items[0].Title)
	}
	if items[0].URL != "https://www.baidu.com/link?url=aaa" {
		t.Errorf("unexpected url: %q", items[0].URL)
	}
	if items[0].Description != "第一条摘要内容" {
		t.Errorf("unexpected description: %q", items[0].Description)
	}
}

func TestExtractHeadingFallback(t *testing.T) {
	items := Extract(headingFallbackFixture, Profiles["google"], 10)

	if len(items) != 1 {
		t.Fatalf("expected 1 item from fallback, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Fallback Title" {
		t.Errorf("unexpected title: %q", items[0].Title)
	}
	if items[0].URL != "https://fallback.example.com/page" {
		t.Errorf("unexpected url: %q", items[0].URL)
	}
	if items[0].Description == "" {
		t.Error("expected fallback to find a description")
	}
}

func TestExtractNeverEmitsEmptyTitleOrURL(t *testing.T) {
	fixtures := map[string]string{
		"missing title": `<div class="result c-container"><h3><a href="https://x.example.com/">   </a></h3></div>`,
		"missing href":  `<div class="result c-container"><h3><a>Some Title</a></h3></div>`,
		"relative href": `<div class="result c-container"><h3><a href="/relative/only">Some Title</a></h3></div>`,
		"garbage":       `<p>not a results page at all</p>`,
	}

	for name, html := range fixtures {
		for _, profile := range Profiles {
			items := Extract(html, profile, 10)
			for _, item := range items {
				if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
					t.Errorf("%s/%s: emitted item with empty title or url: %+v", name, profile.Name, item)
				}
			}
		}
	}
}

func TestExtractResultCapPreservesOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b,
			`<div class="result c-container"><h3><a href="https://example.com/%d">Result %d</a></h3><span>snippet %d</span></div>`,
			i, i, i)
	}
	b.WriteString("</body></html>")

	items := Extract(b.String(), Profiles["baidu"], 5)

	if len(items) != 5 {
		t.Fatalf("expected exactly 5 items, got %d", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("Result %d", i)
		if item.Title != want {
			t.Errorf("item %d: expected %q, got %q", i, want, item.Title)
		}
	}
}

func TestExtractUnparseableHTMLYieldsNothing(t *testing.T) {
	// net/html tolerates almost anything, so even junk must not panic
	// and must come back item-free rather than as an error.
	if items := Extract("\x00\x01garbage<<<<", Profiles["google"], 10); len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

package crawler

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/serpcrawl/models"
)

// ExtractStrategy is one DOM query pattern producing result items.
type ExtractStrategy struct {
	Name string
	Fn   func(doc *goquery.Document) []models.SearchResultItem
}

// Extract runs the profile's strategy chain over rendered HTML. The
// first strategy yielding any items wins; page order is preserved and
// the list is truncated to max (when max > 0). Extraction never fails:
// a broken element is skipped, an unparseable page yields nothing.
func Extract(html string, profile *EngineProfile, max int) []models.SearchResultItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("failed to parse rendered page", "engine", profile.Name, "error", err)
		return nil
	}

	for _, strat := range profile.Strategies {
		items := strat.Fn(doc)
		if len(items) == 0 {
			continue
		}
		slog.Debug("extraction strategy matched",
			"engine", profile.Name, "strategy", strat.Name, "items", len(items))
		if max > 0 && len(items) > max {
			items = items[:max]
		}
		return items
	}

	slog.Debug("no extraction strategy matched", "engine", profile.Name)
	return nil
}

// googleCiteStrategy anchors on cite elements: walk up a fixed number
// of ancestor levels to the result container, require an h3 for the
// title, take the link from the container or its first anchor, then
// look higher up for class-less spans holding the snippet.
func googleCiteStrategy(doc *goquery.Document) []models.SearchResultItem {
	var items []models.SearchResultItem

	doc.Find("cite").Each(func(_ int, cite *goquery.Selection) {
		container := ancestor(cite, 5)
		if container == nil {
			return
		}

		heading := container.Find("h3").First()
		if heading.Length() == 0 {
			return
		}
		title := heading.Text()

		link, _ := container.Attr("href")
		if link == "" {
			link, _ = container.Find("a[href]").First().Attr("href")
		}

		content := ancestor(container, 6)
		if content == nil {
			content = container
		}
		var desc string
		if spans := content.Find("span:not([class])"); spans.Length() > 0 {
			desc = spans.Last().Text()
		} else {
			desc = content.Find(`.VwiC3b, [data-sncf="1"]`).First().Text()
		}

		items = appendItem(items, title, link, desc)
	})

	return items
}

// googleContainerStrategy matches the classic result containers.
func googleContainerStrategy(doc *goquery.Document) []models.SearchResultItem {
	var items []models.SearchResultItem

	doc.Find("div.g, div.yuRUbf").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("h3").First().Text()
		link, _ := s.Find("a[href]").First().Attr("href")
		desc := s.Find("div.VwiC3b, div.IsZvec").First().Text()
		items = appendItem(items, title, link, desc)
	})

	return items
}

// baiduContainerStrategy matches Baidu's result containers: anchor
// nested in a heading for title+link, first span for the snippet.
func baiduContainerStrategy(doc *goquery.Document) []models.SearchResultItem {
	var items []models.SearchResultItem

	doc.Find(".result.c-container.xpath-log, .result.c-container").Each(func(_ int, s *goquery.Selection) {
		post := s.Find("h3 > a").First()
		if post.Length() == 0 {
			return
		}
		link, _ := post.Attr("href")
		desc := s.Find("span").First().Text()
		items = appendItem(items, post.Text(), link, desc)
	})

	return items
}

// baiduTitleClassStrategy matches older Baidu markup keyed by title
// and abstract class names.
func baiduTitleClassStrategy(doc *goquery.Document) []models.SearchResultItem {
	var items []models.SearchResultItem

	doc.Find(".result, .c-container").Each(func(_ int, s *goquery.Selection) {
		titleEl := s.Find(".t, .c-title").First()
		if titleEl.Length() == 0 {
			return
		}
		link, _ := titleEl.Find("a").First().Attr("href")
		desc := s.Find(".c-abstract, .content-abstract").First().Text()
		items = appendItem(items, titleEl.Text(), link, desc)
	})

	return items
}

// headingFallbackStrategy is the last resort shared by all engines:
// scan every h3, take the nearest enclosing (or nested) anchor for the
// URL, and hunt nearby ancestors for the first text block long enough
// to pass as a description.
func headingFallbackStrategy(doc *goquery.Document) []models.SearchResultItem {
	const minDescLen = 20

	var items []models.SearchResultItem

	doc.Find("h3").Each(func(_ int, heading *goquery.Selection) {
		anchor := heading.Closest("a")
		if anchor.Length() == 0 {
			anchor = heading.Find("a").First()
		}
		if anchor.Length() == 0 {
			return
		}
		link, _ := anchor.Attr("href")
		title := strings.TrimSpace(heading.Text())

		var desc string
		cur := heading
		for i := 0; i < 3 && desc == ""; i++ {
			cur = cur.Parent()
			if cur.Length() == 0 {
				break
			}
			cur.Find("div, span, p").EachWithBreak(func(_ int, c *goquery.Selection) bool {
				text := strings.TrimSpace(c.Text())
				if len(text) > minDescLen && text != title {
					desc = text
					return false
				}
				return true
			})
		}

		items = appendItem(items, title, link, desc)
	})

	return items
}

// appendItem applies the emission invariant: title and url must be
// non-empty after trimming and the url must be absolute; description
// may be empty. Elements failing the check are silently skipped.
func appendItem(items []models.SearchResultItem, title, link, desc string) []models.SearchResultItem {
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return items
	}
	if u, err := url.Parse(link); err != nil || !u.IsAbs() {
		return items
	}
	return append(items, models.SearchResultItem{
		Title:       title,
		URL:         link,
		Description: strings.TrimSpace(desc),
	})
}

// ancestor climbs a fixed number of parent levels, returning nil when
// the walk runs off the document root.
func ancestor(s *goquery.Selection, levels int) *goquery.Selection {
	cur := s
	for i := 0; i < levels; i++ {
		cur = cur.Parent()
		if cur.Length() == 0 {
			return nil
		}
	}
	return cur
}

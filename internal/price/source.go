package price

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

const fetchTimeout = 10 * time.Second
const userAgent = "Mozilla/5.0"

// WebSource scrapes unit prices from the configured rates page.
//
// Fiat buy prices sit in a table headed "Currency Name", and the gold coin
// price under an h3 heading. Whatever cannot be found is left out of the
// returned Fields; the page rarely lists half or quarter coins, so those
// stay at their configured values.
type WebSource struct {
	URL    string
	Client *http.Client
}

// NewWebSource builds a source for a rates page URL with a bounded timeout.
func NewWebSource(url string) *WebSource {
	return &WebSource{
		URL:    url,
		Client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads and parses the rates page.
func (source *WebSource) Fetch() (Fields, error) {
	request, err := http.NewRequest("GET", source.URL, nil)

	if err != nil {
		return Fields{}, err
	}

	request.Header.Set("User-Agent", userAgent)

	response, err := source.Client.Do(request)

	if err != nil {
		return Fields{}, err
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Fields{}, fmt.Errorf("price source returned status %d", response.StatusCode)
	}

	document, err := html.Parse(response.Body)

	if err != nil {
		return Fields{}, err
	}

	return readFields(document), nil
}

func readFields(document *html.Node) Fields {
	fields := Fields{}

	for _, table := range elementsByTag(document, "table") {
		if !strings.Contains(nodeText(table), "Currency Name") {
			continue
		}

		for _, row := range elementsByTag(table, "tr") {
			cells := elementsByTag(row, "td")

			if len(cells) < 3 {
				continue
			}

			name := strings.TrimSpace(nodeText(cells[0]))
			value, ok := parsePrice(nodeText(cells[1]))

			if !ok {
				continue
			}

			if strings.EqualFold(name, "US Dollar") {
				fields.USD = &value
			}

			if strings.EqualFold(name, "Euro") {
				fields.EUR = &value
			}
		}
	}

	for _, heading := range elementsByTag(document, "h3") {
		text := nodeText(heading)

		if !strings.Contains(text, "Full Coin") && !strings.Contains(text, "Imami") {
			continue
		}

		sibling := nextElementSibling(heading)

		if sibling == nil {
			continue
		}

		if value, ok := parsePrice(nodeText(sibling)); ok {
			fields.FullCoin = &value
		}
	}

	return fields
}

// parsePrice reads a price with thousands separators, like "45,000,000".
func parsePrice(text string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	value, err := decimal.NewFromString(cleaned)

	if err != nil || value.IsNegative() {
		return decimal.Decimal{}, false
	}

	return value, true
}

func elementsByTag(node *html.Node, tag string) []*html.Node {
	var matches []*html.Node

	var walk func(*html.Node)
	walk = func(current *html.Node) {
		if current.Type == html.ElementNode && current.Data == tag {
			matches = append(matches, current)
		}

		for child := current.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(node)

	return matches
}

func nodeText(node *html.Node) string {
	builder := strings.Builder{}

	var walk func(*html.Node)
	walk = func(current *html.Node) {
		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
		}

		for child := current.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(node)

	return builder.String()
}

func nextElementSibling(node *html.Node) *html.Node {
	for sibling := node.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type == html.ElementNode {
			return sibling
		}
	}

	return nil
}

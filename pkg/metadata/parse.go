package metadata

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseProductPage extracts metadata from a product page. The title is
// mandatory; everything else degrades to empty when the markup changes.
func parseProductPage(r io.Reader, url string) (*Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &ParseError{Field: "document", URL: url}
	}

	md := &Metadata{}

	if n := findNode(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.H1 && attrValue(n, "itemprop") == "name"
	}); n != nil {
		md.Title = strings.TrimSpace(nodeText(n))
	}
	if md.Title == "" {
		return nil, &ParseError{Field: "title", URL: url}
	}

	md.Publisher = "Unknown"
	if n := findNode(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Span && hasClass(n, "maker_name")
	}); n != nil {
		if s := strings.TrimSpace(nodeText(n)); s != "" {
			md.Publisher = s
		}
	}

	if n := findNode(doc, func(n *html.Node) bool {
		return attrValue(n, "id") == "category_type"
	}); n != nil {
		walk(n, func(n *html.Node) {
			if n.DataAtom == atom.Span {
				if title := strings.TrimSpace(attrValue(n, "title")); title != "" {
					md.Categories = append(md.Categories, title)
				}
			}
		})
	}

	if n := findNode(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "main_genre")
	}); n != nil {
		walk(n, func(n *html.Node) {
			if n.DataAtom == atom.A {
				if genre := strings.TrimSpace(nodeText(n)); genre != "" {
					md.Genres = append(md.Genres, genre)
				}
			}
		})
	}

	if n := findNode(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "product-slider-data")
	}); n != nil {
		walk(n, func(n *html.Node) {
			if n.DataAtom == atom.Div {
				if src := attrValue(n, "data-src"); src != "" {
					md.ImageURLs = append(md.ImageURLs, src)
				}
			}
		})
	}

	return md, nil
}

// findNode returns the first node in document order matching pred.
func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// walk calls fn for every element node under n, excluding n itself.
func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walk(c, fn)
	}
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

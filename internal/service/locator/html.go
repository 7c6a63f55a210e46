package locator

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walk calls visit for every element node under n in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	if n == nil {
		return
	}

	if n.Type == html.ElementNode {
		visit(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// textOf returns the concatenated text under n with surrounding space trimmed.
func textOf(n *html.Node) string {
	var b strings.Builder

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}

		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}

	collect(n)

	return strings.TrimSpace(b.String())
}

// attr returns the value of the named attribute of n.
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}

	return ""
}

// nextElementSibling skips text and comment nodes after n.
func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}

	return nil
}

// findHeading returns the first h3 whose text equals label.
func findHeading(doc *html.Node, label string) *html.Node {
	var found *html.Node

	walk(doc, func(n *html.Node) {
		if found == nil && n.DataAtom == atom.H3 && textOf(n) == label {
			found = n
		}
	})

	return found
}

// anchors returns the links under n.
func anchors(n *html.Node) []*html.Node {
	var links []*html.Node

	walk(n, func(el *html.Node) {
		if el.DataAtom == atom.A {
			links = append(links, el)
		}
	})

	return links
}

// entryLabels returns the trimmed text of every list item and link on the
// page, one label per line of text, without trailing slashes.
func entryLabels(doc *html.Node) []string {
	var labels []string

	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Li && n.DataAtom != atom.A {
			return
		}

		for _, line := range strings.Split(textOf(n), "\n") {
			label := strings.TrimSuffix(strings.TrimSpace(line), "/")
			if label != "" {
				labels = append(labels, label)
			}
		}
	})

	return labels
}

package dictionary

import (
	"io"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Document is the slice of DOM behaviour the extractor needs.
type Document interface {
	// ElementByID returns the element whose id attribute equals id.
	ElementByID(id string) (Node, bool)
}

// Node is an element in a Document.
type Node interface {
	// FindAll returns descendant elements with the given tag name in document order.
	FindAll(tag string) []Node
	// FirstLink returns the first descendant <a> element.
	FirstLink() (Node, bool)
	// Text returns the concatenated text content of the element.
	Text() string
}

// ParseHTML parses r into a Document backed by golang.org/x/net/html.
func ParseHTML(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return htmlDocument{root: root}, nil
}

type htmlDocument struct {
	root *html.Node
}

func (d htmlDocument) ElementByID(id string) (Node, bool) {
	n := dom.GetElementByID(d.root, id)
	if n == nil {
		return nil, false
	}
	return htmlNode{n: n}, true
}

type htmlNode struct {
	n *html.Node
}

func (h htmlNode) FindAll(tag string) []Node {
	found := dom.GetElementsByTagName(h.n, tag)
	out := make([]Node, 0, len(found))
	for _, n := range found {
		out = append(out, htmlNode{n: n})
	}
	return out
}

func (h htmlNode) FirstLink() (Node, bool) {
	links := dom.GetElementsByTagName(h.n, "a")
	if len(links) == 0 {
		return nil, false
	}
	return htmlNode{n: links[0]}, true
}

func (h htmlNode) Text() string {
	return dom.TextContent(h.n)
}

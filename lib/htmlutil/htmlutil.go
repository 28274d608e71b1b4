package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && node.DataAtom == atom.Br {
		buffer.WriteString("\n")
		return
	}
	if isInvisible(node) {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func isInvisible(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	switch node.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Clean maps every kind of whitespace (nbsp included) to a plain space, drops
// non-printable runes, collapses runs of spaces and trims the result.
func Clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}

// TextSegments returns the cleaned, non-empty pieces of text under node in
// document order. Every text node is its own segment and text nodes are
// further split on newlines, so "a<br>b", "<b>a</b>b" and "a\nb" all
// produce ["a", "b"].
func TextSegments(node *html.Node) []string {
	var out []string
	textSegmentsRecursive(node, &out)
	return out
}

func textSegmentsRecursive(node *html.Node, out *[]string) {
	if node == nil || isInvisible(node) {
		return
	}
	if node.Type == html.TextNode {
		for _, line := range strings.Split(node.Data, "\n") {
			line = Clean(line)
			if line != "" {
				*out = append(*out, line)
			}
		}
		return
	}
	child := node.FirstChild
	for child != nil {
		textSegmentsRecursive(child, out)
		child = child.NextSibling
	}
}

package rod

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"sentinel-agent/internal/domain/entity"
)

// parseDialogHTML turns the captured dialog markup into a snapshot the
// policy can evaluate. Parsing happens here, away from the live page, so
// the policy stays testable without a browser.
//
// Buttons are native <button> elements and role="button" elements, in
// document order; each gets an XPath selector the adapter can resolve
// again at click time. The description is the dialog's text with button
// labels excluded and whitespace collapsed.
func parseDialogHTML(rawHTML string) (entity.DialogSnapshot, error) {
	rawHTML = strings.TrimSpace(rawHTML)
	if rawHTML == "" {
		return entity.DialogSnapshot{Present: false}, nil
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return entity.DialogSnapshot{}, fmt.Errorf("parse dialog html: %w", err)
	}

	snap := entity.DialogSnapshot{
		Present: true,
		RawHTML: rawHTML,
	}

	var textParts []string
	index := 0

	var walk func(n *html.Node, insideButton bool)
	walk = func(n *html.Node, insideButton bool) {
		if n.Type == html.ElementNode && isButtonNode(n) {
			index++
			snap.Buttons = append(snap.Buttons, entity.DialogButton{
				Label:    collapseSpace(textContent(n)),
				Selector: buttonXPath(index),
			})
			insideButton = true
		}

		if n.Type == html.TextNode && !insideButton {
			if t := strings.TrimSpace(n.Data); t != "" {
				textParts = append(textParts, t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, insideButton)
		}
	}
	walk(doc, false)

	snap.Description = collapseSpace(strings.Join(textParts, " "))
	return snap, nil
}

// buttonXPath addresses the nth button-like element inside the dialog,
// in the same document order parseDialogHTML walks them.
func buttonXPath(n int) string {
	return fmt.Sprintf(`(//*[@role="dialog" or @role="alertdialog"]//*[self::button or @role="button"])[%d]`, n)
}

func isButtonNode(n *html.Node) bool {
	if n.Data == "button" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "role" && attr.Val == "button" {
			return true
		}
	}
	return false
}

// textContent collects all text under a node.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package delivery

import (
	"html"
	"strings"
)

// Rendered is the HTML and plain-text pair handed to the mail provider.
type Rendered struct {
	HTML string
	Text string
}

// Render converts a substituted plain-text body into the HTML and text
// representations of the outgoing email. The HTML variant escapes all
// content, turns paragraphs into <p> blocks, links bare URLs, and appends
// the open-tracking pixel; the text variant is the body verbatim.
func Render(body, pixelURL string) Rendered {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body>\n")
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(linkify(line))
		}
		b.WriteString("</p>\n")
	}
	if pixelURL != "" {
		b.WriteString(`<img src="` + html.EscapeString(pixelURL) + `" width="1" height="1" alt="">` + "\n")
	}
	b.WriteString("</body></html>")

	return Rendered{HTML: b.String(), Text: body}
}

// linkify escapes a line of text, wrapping bare http(s) URLs in anchors.
func linkify(line string) string {
	words := strings.Split(line, " ")
	for i, w := range words {
		if strings.HasPrefix(w, "http://") || strings.HasPrefix(w, "https://") {
			escaped := html.EscapeString(w)
			words[i] = `<a href="` + escaped + `">` + escaped + `</a>`
		} else {
			words[i] = html.EscapeString(w)
		}
	}
	return strings.Join(words, " ")
}

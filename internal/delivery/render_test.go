package delivery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	body := "Dear Ada Lovelace,\n\nYour link:\nhttps://gw.example/track-link-click?applicantId=1&token=t&redirect=r\n\nKind regards"
	out := Render(body, "https://gw.example/track-email-open?applicantId=1&token=t")

	require.Equal(t, body, out.Text)
	require.Contains(t, out.HTML, "<p>Dear Ada Lovelace,</p>")
	require.Contains(t, out.HTML, `<a href="https://gw.example/track-link-click?applicantId=1&amp;token=t&amp;redirect=r">`)
	require.Contains(t, out.HTML, `<img src="https://gw.example/track-email-open?applicantId=1&amp;token=t" width="1" height="1"`)
}

func TestRenderEscapesContent(t *testing.T) {
	out := Render("Hello <script>alert(1)</script>", "")
	require.NotContains(t, out.HTML, "<script>")
	require.Contains(t, out.HTML, "&lt;script&gt;")
	require.NotContains(t, out.HTML, "<img")
}

func TestRenderMultiLineParagraph(t *testing.T) {
	out := Render("line one\nline two", "")
	require.Contains(t, out.HTML, "line one<br>line two")
}

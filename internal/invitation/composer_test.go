package invitation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"irgate/internal/invitation/generation"
)

type stubGenerator struct {
	text   string
	state  generation.RateLimitState
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, input string) (string, generation.RateLimitState) {
	g.prompt = input
	return g.text, g.state
}

func TestComposeDefaultStyle(t *testing.T) {
	gen := &stubGenerator{text: "should never be called"}
	msg := NewComposer(gen).Compose(context.Background(), "default", "", "")

	require.Equal(t, StyleDefault, msg.Style)
	require.Equal(t, generation.RateLimitNone, msg.RateLimitState)
	require.Empty(t, gen.prompt, "default style must not reach the provider")

	// Wording of the base template, sentinel-protected, formatting normalized.
	require.Contains(t, msg.Body, SentinelFirstName)
	require.Contains(t, msg.Body, SentinelLink)
	require.NotContains(t, msg.Body, "{{")
	require.Equal(t, strings.Fields(Protect(BaseBody)), strings.Fields(msg.Body))
}

func TestComposeEmptyStyleIsDefault(t *testing.T) {
	msg := NewComposer(nil).Compose(context.Background(), "", "", "")
	require.Equal(t, StyleDefault, msg.Style)
}

func TestComposeNilGeneratorDegradesToTemplate(t *testing.T) {
	msg := NewComposer(nil).Compose(context.Background(), "formal", "", "")
	require.Equal(t, StyleDefault, msg.Style)
	require.Equal(t, generation.RateLimitNone, msg.RateLimitState)
	require.Empty(t, MissingSentinels(msg.Body))
}

func TestComposeStyledHappyPath(t *testing.T) {
	gen := &stubGenerator{
		text: "Subject: A warm welcome\nBody: Dear " + SentinelFirstName + " " + SentinelLastName +
			",\n\nYour link: " + SentinelLink + "\n\nThe Investor Relations Team",
		state: generation.RateLimitNone,
	}
	msg := NewComposer(gen).Compose(context.Background(), "warm", "", "")

	require.Equal(t, "A warm welcome", msg.Subject)
	require.Equal(t, "warm", msg.Style)
	require.Equal(t, generation.RateLimitNone, msg.RateLimitState)
	require.Empty(t, MissingSentinels(msg.Body))

	// The prompt never contains real placeholders, only sentinels.
	require.NotContains(t, gen.prompt, "{{firstName}}")
	require.Contains(t, gen.prompt, SentinelFirstName)
	require.Contains(t, gen.prompt, "30 days")
}

func TestComposeBothUnavailableReturnsBaseUnchanged(t *testing.T) {
	gen := &stubGenerator{state: generation.RateLimitBothUnavailable}
	msg := NewComposer(gen).Compose(context.Background(), "formal", "", "")

	require.Equal(t, generation.RateLimitBothUnavailable, msg.RateLimitState)
	require.Equal(t, Protect(BaseSubject), msg.Subject)
	require.Equal(t, Protect(BaseBody), msg.Body)
	require.Equal(t, "formal", msg.Style)
}

func TestComposeMalformedOutputFallsBack(t *testing.T) {
	gen := &stubGenerator{text: "sure, here is your email!", state: generation.RateLimitNone}
	msg := NewComposer(gen).Compose(context.Background(), "formal", "", "")

	require.Equal(t, Protect(BaseSubject), msg.Subject)
	require.Equal(t, Protect(BaseBody), msg.Body)
}

func TestComposeRepairsDroppedName(t *testing.T) {
	gen := &stubGenerator{
		text: "Subject: Welcome\nBody: Dear shareholder,\n\nYour link: " + SentinelLink +
			"\n\nThe Investor Relations Team",
		state: generation.RateLimitNone,
	}
	msg := NewComposer(gen).Compose(context.Background(), "formal", "", "")

	require.Empty(t, MissingSentinels(msg.Body))
	require.True(t, strings.HasPrefix(msg.Body, "Dear "+SentinelFirstName+" "+SentinelLastName+","))
}

func TestComposeRepairsDroppedSurname(t *testing.T) {
	gen := &stubGenerator{
		text: "Subject: Welcome\nBody: Hello " + SentinelFirstName + ",\n\n" + SentinelLink,
	}
	msg := NewComposer(gen).Compose(context.Background(), "casual", "", "")

	require.Empty(t, MissingSentinels(msg.Body))
	require.Contains(t, msg.Body, SentinelFirstName+" "+SentinelLastName)
}

func TestComposeRepairsDroppedLink(t *testing.T) {
	gen := &stubGenerator{
		text: "Subject: Welcome\nBody: Dear " + SentinelFirstName + " " + SentinelLastName +
			",\n\nplease register soon.",
	}
	msg := NewComposer(gen).Compose(context.Background(), "formal", "", "")

	require.Empty(t, MissingSentinels(msg.Body))
	require.Contains(t, msg.Body, "registration link: "+SentinelLink)
}

func TestComposeCustomTemplatePassedThrough(t *testing.T) {
	gen := &stubGenerator{state: generation.RateLimitBothUnavailable}
	msg := NewComposer(gen).Compose(context.Background(), "formal",
		"Hello {{firstName}}", "Body for {{firstName}} {{lastName}}: {{registrationLink}}")

	require.Equal(t, "Hello "+SentinelFirstName, msg.Subject)
	require.Equal(t, "Body for "+SentinelFirstName+" "+SentinelLastName+": "+SentinelLink, msg.Body)
}

func TestParseGenerated(t *testing.T) {
	sub, body, ok := parseGenerated("Subject: S\nBody: B\nmore")
	require.True(t, ok)
	require.Equal(t, "S", sub)
	require.Equal(t, "B\nmore", body)

	_, _, ok = parseGenerated("Body: B\nSubject: S")
	require.False(t, ok)

	_, _, ok = parseGenerated("no markers")
	require.False(t, ok)

	_, _, ok = parseGenerated("Subject:\nBody: B")
	require.False(t, ok)

	// Marker matching is case-insensitive and must not disturb the payload,
	// even when lowercasing would change its byte length (U+0130).
	sub, body, ok = parseGenerated("SUBJECT: İstanbul Briefing\nBODY: Merhaba")
	require.True(t, ok)
	require.Equal(t, "İstanbul Briefing", sub)
	require.Equal(t, "Merhaba", body)
}

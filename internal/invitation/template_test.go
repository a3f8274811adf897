package invitation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestProtectAndSubstitute(t *testing.T) {
	protected := Protect(BaseBody)
	require.NotContains(t, protected, PlaceholderFirstName)
	require.NotContains(t, protected, PlaceholderLastName)
	require.NotContains(t, protected, PlaceholderLink)
	require.Contains(t, protected, SentinelFirstName)
	require.Contains(t, protected, SentinelLastName)
	require.Contains(t, protected, SentinelLink)

	final := Substitute(protected, "Ada", "Lovelace", "https://invest.example/claim/abc")
	require.NotContains(t, final, "[[")
	require.NotContains(t, final, "{{")
	require.Contains(t, final, "Dear Ada Lovelace,")
	require.Contains(t, final, "https://invest.example/claim/abc")
}

func TestSubstituteHandlesUnprotectedTemplate(t *testing.T) {
	// Staff templates that never went through a provider still carry the
	// literal placeholders. Substitute resolves both notations.
	final := Substitute(BaseBody, "Ada", "Lovelace", "https://x")
	require.Contains(t, final, "Dear Ada Lovelace,")
	require.Contains(t, final, "https://x")
	require.NotContains(t, final, "{{")
}

func TestMissingSentinels(t *testing.T) {
	require.Empty(t, MissingSentinels(Protect(BaseBody)))

	missing := MissingSentinels("Dear " + SentinelFirstName + ",\nwelcome")
	require.Equal(t, []string{SentinelLastName, SentinelLink}, missing)

	require.Len(t, MissingSentinels("no tokens at all"), 3)
}

func TestReformatParagraphs(t *testing.T) {
	in := "\r\n\r\nDear reader,  \r\n\r\n\r\n\r\nSecond paragraph.\t\n\n\n"
	require.Equal(t, "Dear reader,\n\nSecond paragraph.", ReformatParagraphs(in))
}

func TestReformatParagraphsPreservesWording(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.String().Draw(t, "body")
		out := ReformatParagraphs(body)

		// Formatting only: the words survive untouched.
		require.Equal(t, strings.Fields(body), strings.Fields(out))

		// Idempotent.
		require.Equal(t, out, ReformatParagraphs(out))
	})
}

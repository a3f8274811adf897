// Package invitation composes the subject/body pair for a shareholder
// invitation, either verbatim from the base template or restyled through an
// external generation provider under a strict placeholder contract.
package invitation

import "strings"

// Literal placeholders as they appear in staff-authored templates.
const (
	PlaceholderFirstName = "{{firstName}}"
	PlaceholderLastName  = "{{lastName}}"
	PlaceholderLink      = "{{registrationLink}}"
)

// Sentinel tokens stand in for the literal placeholders while content passes
// through the generation provider. The provider never observes a real name or
// link; sentinels are translated back only at the final send step.
const (
	SentinelFirstName = "[[FIRST_NAME]]"
	SentinelLastName  = "[[LAST_NAME]]"
	SentinelLink      = "[[REGISTRATION_LINK]]"
)

// BaseSubject is the literal invitation subject.
const BaseSubject = "Your pre-verified shareholder account is ready"

// BaseBody is the literal invitation template. It states every fact the
// generated variants must also carry: registry membership, the prepared
// pre-verified account, the registration link and its 30-day validity, the
// post-registration benefits, the ignore-if-error notice, and the sender.
const BaseBody = `Dear {{firstName}} {{lastName}},

We are writing to you because you are listed in our shareholder registry. A pre-verified account has been prepared in your name, so no documents or review are required.

To claim your account, open your personal registration link:
{{registrationLink}}

This link remains valid for 30 days from the date of this email. Once registered you can review your holdings, receive distribution notices, and vote at general meetings online.

If you received this message in error, please ignore it and no account will be created.

Kind regards,
The Investor Relations Team`

// Protect swaps literal placeholders for sentinel tokens before any text is
// shown to a generation provider.
func Protect(s string) string {
	r := strings.NewReplacer(
		PlaceholderFirstName, SentinelFirstName,
		PlaceholderLastName, SentinelLastName,
		PlaceholderLink, SentinelLink,
	)
	return r.Replace(s)
}

// Substitute translates sentinel tokens (and any remaining literal
// placeholders) into real values. Called exactly once, at the send step.
func Substitute(s, firstName, lastName, link string) string {
	r := strings.NewReplacer(
		SentinelFirstName, firstName,
		SentinelLastName, lastName,
		SentinelLink, link,
		PlaceholderFirstName, firstName,
		PlaceholderLastName, lastName,
		PlaceholderLink, link,
	)
	return r.Replace(s)
}

// requiredSentinels lists the tokens a generated body must preserve.
var requiredSentinels = []string{SentinelFirstName, SentinelLastName, SentinelLink}

// MissingSentinels reports which required tokens are absent from body.
func MissingSentinels(body string) []string {
	var missing []string
	for _, s := range requiredSentinels {
		if !strings.Contains(body, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// ReformatParagraphs normalizes line endings and paragraph spacing without
// altering wording: CRLF becomes LF, runs of blank lines collapse to one
// blank line, and trailing whitespace is trimmed.
func ReformatParagraphs(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")

	var out []string
	blank := true // swallow leading blanks
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	// Drop a trailing blank line.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

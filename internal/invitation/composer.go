package invitation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"irgate/internal/invitation/generation"
	"irgate/internal/invitation/metrics"
)

// StyleDefault delivers the literal template with paragraph formatting only.
const StyleDefault = "default"

// Message is the ephemeral composed invitation. The body still carries
// sentinel tokens; real values are substituted at the send step, never here.
type Message struct {
	Subject        string
	Body           string
	Style          string
	RateLimitState generation.RateLimitState
}

// Generator is the model chain the composer restyles content through.
type Generator interface {
	Generate(ctx context.Context, input string) (string, generation.RateLimitState)
}

// Composer produces invitation messages. A nil generator (no credentials
// configured) is valid: every style then degrades to the literal template.
type Composer struct {
	generator Generator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the composer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// WithMetrics records composition outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Composer) { c.metrics = m }
}

// NewComposer constructs a composer.
func NewComposer(generator Generator, opts ...Option) *Composer {
	c := &Composer{generator: generator, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns a subject/body pair for the requested style. It never
// fails: any degradation along the way resolves to the protected base
// template, with the rate-limit state reporting what happened.
func (c *Composer) Compose(ctx context.Context, style, baseSubject, baseBody string) Message {
	if baseSubject == "" {
		baseSubject = BaseSubject
	}
	if baseBody == "" {
		baseBody = BaseBody
	}

	// Protect placeholders before the text can reach any provider.
	protSubject := Protect(baseSubject)
	protBody := Protect(baseBody)

	if style == "" {
		style = StyleDefault
	}
	if style == StyleDefault || c.generator == nil {
		msg := Message{
			Subject:        protSubject,
			Body:           ReformatParagraphs(protBody),
			Style:          StyleDefault,
			RateLimitState: generation.RateLimitNone,
		}
		c.metrics.RecordComposition(msg.Style, string(msg.RateLimitState))
		return msg
	}

	text, state := c.generator.Generate(ctx, buildPrompt(style, protSubject, protBody))
	if state == generation.RateLimitBothUnavailable {
		// Base template unchanged so callers can surface a warning without
		// failing the user-visible action.
		msg := Message{Subject: protSubject, Body: protBody, Style: style, RateLimitState: state}
		c.metrics.RecordComposition(style, string(state))
		return msg
	}

	subject, body, ok := parseGenerated(text)
	if !ok {
		c.logger.WarnContext(ctx, "generated output missing Subject/Body shape, using base template", "style", style)
		c.metrics.RecordRepair("discarded")
		msg := Message{Subject: protSubject, Body: protBody, Style: style, RateLimitState: state}
		c.metrics.RecordComposition(style, string(state))
		return msg
	}

	body, outcome := repairSentinels(body)
	c.metrics.RecordRepair(outcome)
	if outcome == "discarded" {
		// A body missing required sentinels must never reach delivery.
		c.logger.WarnContext(ctx, "generated body lost placeholders beyond repair, using base template", "style", style)
		subject, body = protSubject, protBody
	}

	msg := Message{Subject: subject, Body: body, Style: style, RateLimitState: state}
	c.metrics.RecordComposition(style, string(state))
	return msg
}

// buildPrompt assembles the strict instruction contract for the generation
// provider: preserve sentinels exactly, carry the enumerated facts, and emit
// the fixed Subject/Body shape.
func buildPrompt(style, subject, body string) string {
	var b strings.Builder
	b.WriteString("You rewrite an investor-relations invitation email in a ")
	b.WriteString(style)
	b.WriteString(" tone.\n\n")
	b.WriteString("Hard requirements:\n")
	fmt.Fprintf(&b, "1. Preserve the tokens %s, %s and %s exactly as written. Do not translate, reword, move them into new words, or invent names or links.\n",
		SentinelFirstName, SentinelLastName, SentinelLink)
	b.WriteString("2. The email must state all of the following facts:\n")
	b.WriteString("   - the recipient is listed in the shareholder registry\n")
	b.WriteString("   - a pre-verified account has already been prepared for them\n")
	b.WriteString("   - no documents or review are required\n")
	fmt.Fprintf(&b, "   - the personal registration link is %s\n", SentinelLink)
	b.WriteString("   - the link is valid for 30 days\n")
	b.WriteString("   - after registering they can review holdings, receive distribution notices, and vote online\n")
	b.WriteString("   - recipients who received the email in error should ignore it\n")
	b.WriteString("   - the email is sent by the Investor Relations Team\n")
	b.WriteString("3. Answer in exactly this shape, with no other text:\n")
	b.WriteString("Subject: <subject line>\n")
	b.WriteString("Body: <full email body>\n\n")
	b.WriteString("Template to restyle:\n")
	b.WriteString("Subject: ")
	b.WriteString(subject)
	b.WriteString("\nBody: ")
	b.WriteString(body)
	return b.String()
}

// parseGenerated extracts the Subject:/Body: pair from provider output.
// Markers are matched line by line with ASCII-safe case folding; byte
// offsets into a lowercased copy are not safe for all of Unicode.
func parseGenerated(text string) (subject, body string, ok bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	subjectIdx := -1
	for i, line := range lines {
		if rest, found := cutMarker(line, "Subject:"); found {
			subject, subjectIdx = rest, i
			break
		}
	}
	if subjectIdx < 0 || subject == "" {
		return "", "", false
	}

	for j := subjectIdx + 1; j < len(lines); j++ {
		rest, found := cutMarker(lines[j], "Body:")
		if !found {
			continue
		}
		body = strings.TrimSpace(rest + "\n" + strings.Join(lines[j+1:], "\n"))
		if body == "" {
			return "", "", false
		}
		return subject, body, true
	}
	return "", "", false
}

// cutMarker strips a case-insensitive marker prefix from a line.
func cutMarker(line, marker string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(marker) || !strings.EqualFold(line[:len(marker)], marker) {
		return "", false
	}
	return strings.TrimSpace(line[len(marker):]), true
}

var greetingPrefixes = []string{"dear ", "hello ", "hi ", "greetings"}

// repairSentinels applies the staged best-effort recovery of required
// sentinels. Outcomes: "intact" (nothing to do), "recovered" (tokens
// reinserted), "discarded" (unrecoverable, caller must fall back).
func repairSentinels(body string) (string, string) {
	if len(MissingSentinels(body)) == 0 {
		return body, "intact"
	}

	// Stage 1: a missing name sentinel is restored through the greeting.
	if !strings.Contains(body, SentinelFirstName) {
		if idx := findGreetingLine(body); idx >= 0 {
			lines := strings.Split(body, "\n")
			lines[idx] = repairedGreeting
			body = strings.Join(lines, "\n")
		} else {
			body = repairedGreeting + "\n\n" + body
		}
	}

	// Stage 2: a missing surname joins the existing first-name token.
	if !strings.Contains(body, SentinelLastName) && strings.Contains(body, SentinelFirstName) {
		body = strings.Replace(body, SentinelFirstName, SentinelFirstName+" "+SentinelLastName, 1)
	}

	// Stage 3: a missing link gets a standalone call-to-action line.
	if !strings.Contains(body, SentinelLink) {
		body = body + "\n\nTo claim your account, open your personal registration link: " + SentinelLink
	}

	if len(MissingSentinels(body)) > 0 {
		return body, "discarded"
	}
	return body, "recovered"
}

// repairedGreeting is the replacement greeting carrying both name sentinels.
const repairedGreeting = "Dear " + SentinelFirstName + " " + SentinelLastName + ","

// findGreetingLine returns the index of the first non-empty line when it
// reads like a greeting, or -1.
func findGreetingLine(body string) int {
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, p := range greetingPrefixes {
			if strings.HasPrefix(lower, p) {
				return i
			}
		}
		return -1
	}
	return -1
}

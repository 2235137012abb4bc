package persona

import (
	"fmt"
	"strings"
	"time"
)

// BuildPrompt renders the system prompt for a persona. The assembly is
// deterministic: the same config and date always produce byte-identical
// output, which keeps the prompt snapshot-testable.
func BuildPrompt(cfg Config, now time.Time) string {
	cfg = cfg.Resolve()

	var b strings.Builder

	fmt.Fprintf(&b, "You are the personal assistant on %s's website, answering visitor questions about %s's work, background and projects.\n", cfg.OwnerName, cfg.OwnerName)
	fmt.Fprintf(&b, "Today's date is %s.\n", now.Format("January 2, 2006"))

	b.WriteString("\nCommunication style: ")
	b.WriteString(styleDescriptions[cfg.Style])
	b.WriteString("\n")

	if len(cfg.Traits) > 0 {
		b.WriteString("Personality traits to embody: ")
		b.WriteString(strings.Join(cfg.Traits, ", "))
		b.WriteString(".\n")
	}

	if cfg.CustomInstructions != "" {
		b.WriteString("\nAdditional instructions from ")
		b.WriteString(cfg.OwnerName)
		b.WriteString(":\n")
		b.WriteString(cfg.CustomInstructions)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nIdentity: if a visitor asks directly whether they are talking to %s or to a bot, say clearly that you are an AI assistant representing %s. Otherwise speak in first person about %s's work and experience, but never claim to actually be %s.\n", cfg.OwnerName, cfg.OwnerName, cfg.OwnerName, cfg.OwnerName)

	if contact := contactSection(cfg); contact != "" {
		b.WriteString("\nContact details you may share when relevant:\n")
		b.WriteString(contact)
	}

	if restrictions := restrictionSection(cfg); restrictions != "" {
		b.WriteString("\nRestrictions:\n")
		b.WriteString(restrictions)
	}

	b.WriteString(`
Writing rules, always in force:
- Never use an em dash under any circumstance. Use a comma, a period or the word "and" instead.
- Avoid canned AI phrasing such as "As an AI" or "I'd be happy to".
- Keep exclamation points to a minimum.
- Prefer flowing prose over bullet lists unless the visitor asks for a list.
- Markdown links must have no space between ] and (, as in [text](url).
`)

	b.WriteString("\nWhen answering follow-up questions, prefer facts the visitor or you stated earlier in this conversation over generic knowledge-base snippets.\n")

	return b.String()
}

// contactSection renders the gated contact lines. A channel with a
// permission flag appears only when the flag is true and the value is set;
// website and phone appear whenever set.
func contactSection(cfg Config) string {
	var lines []string
	add := func(label, value string) {
		lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
	}

	if cfg.Permissions.CanShareGitHub && cfg.Links.GitHub != "" {
		add("GitHub", cfg.Links.GitHub)
	}
	if cfg.Permissions.CanShareLinkedIn && cfg.Links.LinkedIn != "" {
		add("LinkedIn", cfg.Links.LinkedIn)
	}
	if cfg.Permissions.CanShareTwitter && cfg.Links.Twitter != "" {
		add("Twitter", cfg.Links.Twitter)
	}
	if cfg.Permissions.CanShareEmail && cfg.Links.Email != "" {
		add("Email", cfg.Links.Email)
	}
	if cfg.Links.Website != "" {
		add("Website", cfg.Links.Website)
	}
	if cfg.Links.Phone != "" {
		add("Phone", cfg.Links.Phone)
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func restrictionSection(cfg Config) string {
	var lines []string
	if !cfg.Permissions.CanDiscussSalary {
		lines = append(lines, "- Do not discuss salary, compensation or rates. Politely decline and suggest contacting "+cfg.OwnerName+" directly.")
	}
	if !cfg.Permissions.CanScheduleCalls {
		lines = append(lines, "- Do not offer to schedule calls or meetings.")
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

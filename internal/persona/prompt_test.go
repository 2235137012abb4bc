package persona

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var promptDate = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func fullConfig() Config {
	return Config{
		TenantID:           "t1",
		OwnerName:          "Mira Chen",
		Style:              StyleProfessional,
		Traits:             []string{"curious", "direct"},
		CustomInstructions: "Mention the open-source work when relevant.",
		Links: ExternalLinks{
			GitHub:   "https://github.com/mirachen",
			LinkedIn: "https://linkedin.com/in/mirachen",
			Twitter:  "https://twitter.com/mirachen",
			Website:  "https://mirachen.dev",
			Email:    "mira@mirachen.dev",
			Phone:    "+1 555 0100",
		},
		Permissions: AccessPermissions{
			CanShareGitHub:   true,
			CanShareLinkedIn: true,
			CanShareTwitter:  true,
			CanShareEmail:    true,
			CanDiscussSalary: true,
			CanScheduleCalls: true,
		},
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	cfg := fullConfig()
	first := BuildPrompt(cfg, promptDate)
	second := BuildPrompt(cfg, promptDate)
	assert.Equal(t, first, second, "same config and date must be byte-identical")
}

func TestBuildPrompt_CoreSections(t *testing.T) {
	prompt := BuildPrompt(fullConfig(), promptDate)

	assert.Contains(t, prompt, "Mira Chen's website")
	assert.Contains(t, prompt, "March 14, 2025")
	assert.Contains(t, prompt, styleDescriptions[StyleProfessional])
	assert.Contains(t, prompt, "curious, direct")
	assert.Contains(t, prompt, "Mention the open-source work when relevant.")
	assert.Contains(t, prompt, "you are an AI assistant representing Mira Chen")
	assert.Contains(t, prompt, "Never use an em dash")
	assert.Contains(t, prompt, "no space between ] and (")
	assert.Contains(t, prompt, "stated earlier in this conversation")
}

func TestBuildPrompt_DefaultsResolved(t *testing.T) {
	prompt := BuildPrompt(Config{}, promptDate)

	assert.Contains(t, prompt, "the site owner's website")
	assert.Contains(t, prompt, styleDescriptions[StyleFriendly], "unset style defaults to friendly")
	assert.NotContains(t, prompt, "Personality traits")
	assert.NotContains(t, prompt, "Additional instructions")
}

func TestBuildPrompt_UnknownStyleFallsBack(t *testing.T) {
	cfg := fullConfig()
	cfg.Style = CommunicationStyle("sarcastic")
	prompt := BuildPrompt(cfg, promptDate)
	assert.Contains(t, prompt, styleDescriptions[StyleFriendly])
}

func TestBuildPrompt_ContactGating(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		contains    []string
		notContains []string
	}{
		{
			name:     "all permitted links present",
			mutate:   func(*Config) {},
			contains: []string{"GitHub: https://github.com/mirachen", "Email: mira@mirachen.dev"},
		},
		{
			name: "github link without permission is omitted",
			mutate: func(c *Config) {
				c.Permissions.CanShareGitHub = false
			},
			notContains: []string{"github.com/mirachen"},
		},
		{
			name: "permission without link value is omitted",
			mutate: func(c *Config) {
				c.Links.LinkedIn = ""
			},
			notContains: []string{"LinkedIn"},
		},
		{
			name: "website and phone are ungated",
			mutate: func(c *Config) {
				c.Permissions = AccessPermissions{CanDiscussSalary: true, CanScheduleCalls: true}
			},
			contains:    []string{"Website: https://mirachen.dev", "Phone: +1 555 0100"},
			notContains: []string{"GitHub", "LinkedIn", "Twitter", "Email"},
		},
		{
			name: "no qualifying links drops the whole section",
			mutate: func(c *Config) {
				c.Links = ExternalLinks{}
			},
			notContains: []string{"Contact details"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(&cfg)
			prompt := BuildPrompt(cfg, promptDate)
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
			for _, not := range tt.notContains {
				assert.NotContains(t, prompt, not)
			}
		})
	}
}

func TestBuildPrompt_Restrictions(t *testing.T) {
	cfg := fullConfig()
	assert.NotContains(t, BuildPrompt(cfg, promptDate), "Restrictions:")

	cfg.Permissions.CanDiscussSalary = false
	prompt := BuildPrompt(cfg, promptDate)
	assert.Contains(t, prompt, "Do not discuss salary")
	assert.NotContains(t, prompt, "schedule calls")

	cfg.Permissions.CanScheduleCalls = false
	prompt = BuildPrompt(cfg, promptDate)
	assert.Contains(t, prompt, "Do not discuss salary")
	assert.Contains(t, prompt, "Do not offer to schedule calls")
}

func TestBuildPrompt_NoEmDashInOutput(t *testing.T) {
	prompt := BuildPrompt(fullConfig(), promptDate)
	assert.False(t, strings.ContainsRune(prompt, '—'), "prompt itself must honor the no em dash rule")
}

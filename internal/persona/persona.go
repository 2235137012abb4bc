// Package persona models a tenant's agent persona and renders it into a
// deterministic system prompt.
//
// A PersonaConfig arrives from tenant storage with most fields optional.
// Defaults are resolved once at construction so the prompt builder always
// operates on a fully populated value.
package persona

import (
	"context"
	"errors"
)

// ErrPersonaNotFound indicates no persona is stored for the tenant.
var ErrPersonaNotFound = errors.New("persona not found")

// CommunicationStyle selects the voice the agent answers in.
type CommunicationStyle string

const (
	StyleFriendly     CommunicationStyle = "friendly"
	StyleCasual       CommunicationStyle = "casual"
	StyleProfessional CommunicationStyle = "professional"
	StyleFormal       CommunicationStyle = "formal"
	StyleEnthusiastic CommunicationStyle = "enthusiastic"
	StyleCalm         CommunicationStyle = "calm"
)

// DefaultStyle applies when a tenant never picked a style.
const DefaultStyle = StyleFriendly

// styleDescriptions is the fixed lookup used by the prompt builder.
var styleDescriptions = map[CommunicationStyle]string{
	StyleFriendly:     "Warm and approachable. Answer like a helpful colleague who enjoys the conversation.",
	StyleCasual:       "Relaxed and conversational. Plain language, contractions are fine, no stiffness.",
	StyleProfessional: "Clear and businesslike. Precise wording, measured tone, no slang.",
	StyleFormal:       "Polished and respectful. Complete sentences, formal address, no colloquialisms.",
	StyleEnthusiastic: "Energetic and positive. Show genuine interest in the topic without overdoing it.",
	StyleCalm:         "Even and unhurried. Steady tone, no urgency, reassuring phrasing.",
}

// ExternalLinks holds the contact points a tenant may expose through the
// agent. All fields are optional.
type ExternalLinks struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Website  string `json:"website,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// AccessPermissions gates what the agent may share or discuss. Website and
// phone have no per-channel gate; they are shared whenever set.
type AccessPermissions struct {
	CanShareGitHub   bool `json:"can_share_github"`
	CanShareLinkedIn bool `json:"can_share_linkedin"`
	CanShareTwitter  bool `json:"can_share_twitter"`
	CanShareEmail    bool `json:"can_share_email"`
	CanDiscussSalary bool `json:"can_discuss_salary"`
	CanScheduleCalls bool `json:"can_schedule_calls"`
}

// Config is a tenant's persona. Immutable within a single request.
type Config struct {
	TenantID           string             `json:"tenant_id"`
	OwnerName          string             `json:"owner_name"`
	Style              CommunicationStyle `json:"communication_style"`
	Traits             []string           `json:"personality_traits,omitempty"`
	CustomInstructions string             `json:"custom_instructions,omitempty"`
	Links              ExternalLinks      `json:"external_links"`
	Permissions        AccessPermissions  `json:"access_permissions"`
}

// Resolve fills in defaults for unset fields and returns the config ready
// for prompt building. The receiver is not modified.
func (c Config) Resolve() Config {
	if c.OwnerName == "" {
		c.OwnerName = "the site owner"
	}
	if _, ok := styleDescriptions[c.Style]; !ok {
		c.Style = DefaultStyle
	}
	return c
}

// Store reads and writes persona configuration by tenant.
type Store interface {
	GetPersona(ctx context.Context, tenantID string) (*Config, error)
	SavePersona(ctx context.Context, cfg *Config) error
}

package models

import "fmt"

// RoleMode discriminates between the single-role and the creative/deterministic
// dual-role agent configuration.
type RoleMode string

const (
	RoleModeSingle RoleMode = "single"
	RoleModeDual   RoleMode = "dual"
)

// Agent role identifiers used to tag transcript entries.
const (
	RoleAgent         = "agent"
	RoleCreative      = "creative"
	RoleDeterministic = "deterministic"
)

// AgentConfig holds the generation settings for one agent role.
type AgentConfig struct {
	Role         string  `json:"role"`
	SystemPrompt string  `json:"system_prompt" validate:"required"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature"   validate:"gte=0,lte=2"`
}

// AgentRoles is a tagged variant: either one single-role config or a
// creative/deterministic pair. Use SingleRole or DualRole to construct it.
type AgentRoles struct {
	Mode          RoleMode     `json:"mode"                    validate:"required,oneof=single dual"`
	Single        *AgentConfig `json:"single,omitempty"`
	Creative      *AgentConfig `json:"creative,omitempty"`
	Deterministic *AgentConfig `json:"deterministic,omitempty"`
}

func SingleRole(config AgentConfig) AgentRoles {
	config.Role = RoleAgent

	return AgentRoles{Mode: RoleModeSingle, Single: &config}
}

func DualRole(creative, deterministic AgentConfig) AgentRoles {
	creative.Role = RoleCreative
	deterministic.Role = RoleDeterministic

	return AgentRoles{Mode: RoleModeDual, Creative: &creative, Deterministic: &deterministic}
}

func (r AgentRoles) IsDual() bool {
	return r.Mode == RoleModeDual
}

// CreativeConfig returns the config responsible for message generation.
func (r AgentRoles) CreativeConfig() *AgentConfig {
	if r.Mode == RoleModeDual {
		return r.Creative
	}

	return r.Single
}

// DeterministicConfig returns the config responsible for channel execution.
func (r AgentRoles) DeterministicConfig() *AgentConfig {
	if r.Mode == RoleModeDual {
		return r.Deterministic
	}

	return r.Single
}

func (r AgentRoles) Validate() error {
	switch r.Mode {
	case RoleModeSingle:
		if r.Single == nil {
			return fmt.Errorf("single-role configuration requires a single agent config")
		}

		if r.Creative != nil || r.Deterministic != nil {
			return fmt.Errorf("single-role configuration must not carry creative or deterministic configs")
		}
	case RoleModeDual:
		if r.Creative == nil || r.Deterministic == nil {
			return fmt.Errorf("dual-role configuration requires both creative and deterministic configs")
		}

		if r.Single != nil {
			return fmt.Errorf("dual-role configuration must not carry a single agent config")
		}
	default:
		return fmt.Errorf("unknown role mode %q", r.Mode)
	}

	return nil
}

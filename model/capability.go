// Package model provides capability-based model selection for simulation
// actors. Instead of hardcoding model names, callers specify capabilities
// (reviewing, skinning, fast) and the registry resolves them to available
// models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "claude-sonnet", callers specify "reviewing".
type Capability string

const (
	// CapabilityReviewing is for code review and fix validation.
	// Used by the lead and validator actors; wants low temperature.
	CapabilityReviewing Capability = "reviewing"

	// CapabilitySkinning is for scenario personalization rewrites.
	// Cosmetic text generation; a cheaper model is fine.
	CapabilitySkinning Capability = "skinning"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// ActorCapabilities maps simulation actor roles to their default capability.
var ActorCapabilities = map[string]Capability{
	"lead":      CapabilityReviewing,
	"validator": CapabilityReviewing,
	"refiner":   CapabilitySkinning,
}

// CapabilityForActor returns the default capability for a given actor role.
// Returns CapabilityFast as fallback for unknown roles.
func CapabilityForActor(role string) Capability {
	if cap, ok := ActorCapabilities[role]; ok {
		return cap
	}
	return CapabilityFast
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityReviewing, CapabilitySkinning, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}

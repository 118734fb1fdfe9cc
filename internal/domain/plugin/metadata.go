package plugin

import "fmt"

// Declaration captures the static facts a plugin instance reports about
// itself once at registration time: its identity and the capabilities it
// provisions (can satisfy for others) and requires (must be satisfied by
// something earlier in the plan) to run.
type Declaration struct {
	ID                    Id
	ProvisionCapabilities []Capability
	RequiredCapabilities  []Capability

	// ProvisionsKeys and ConsumesKeys name the state store keys this
	// plugin instance writes and reads, respectively. The planner uses
	// these (not the capability lists above) to order plugin instances
	// within and across steps so a consumer never runs before its
	// producer. Key names are plain strings here to avoid a dependency
	// from this package onto the state-store's KeyName type.
	ProvisionsKeys []string
	ConsumesKeys   []string
}

// Validate ensures a declaration satisfies the invariants the capability
// registry relies on: a non-empty id and no capability listed as both
// provided and required (which would be trivially self-satisfying and is
// rejected as a configuration mistake rather than silently accepted).
func (d Declaration) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("plugin id is required")
	}
	provided := make(map[Capability]bool, len(d.ProvisionCapabilities))
	for _, c := range d.ProvisionCapabilities {
		if c == "" {
			return fmt.Errorf("plugin %s: empty capability in provision_capabilities", d.ID)
		}
		provided[c] = true
	}
	for _, c := range d.RequiredCapabilities {
		if c == "" {
			return fmt.Errorf("plugin %s: empty capability in required_capabilities", d.ID)
		}
		if provided[c] {
			return fmt.Errorf("plugin %s: capability %q listed as both provided and required", d.ID, c)
		}
	}
	return nil
}

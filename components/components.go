// Package components defines ECS components for mobile agents.
package components

// AgentKind identifies what an agent is and which faction it serves.
type AgentKind uint8

const (
	Lumispark AgentKind = iota
	Shadowling
	NeutralSpirit
	Mage
	Thrall

	NumAgentKinds = 5
)

// NumFaunaKinds counts the wandering creature kinds, which come first.
const NumFaunaKinds = 3

func (k AgentKind) String() string {
	switch k {
	case Lumispark:
		return "lumispark"
	case Shadowling:
		return "shadowling"
	case NeutralSpirit:
		return "neutral_spirit"
	case Mage:
		return "mage"
	case Thrall:
		return "thrall"
	}
	return "unknown"
}

// IsFauna reports whether the kind is a wandering creature.
func (k AgentKind) IsFauna() bool { return k < NumFaunaKinds }

// Agent is the identity shared by fauna and units.
type Agent struct {
	ID   uint32
	Kind AgentKind
}

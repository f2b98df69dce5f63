package gateway

// State is the lifecycle state of the backend connection.
type State int32

const (
	// StateUninitialized means no configuration has ever passed validation.
	StateUninitialized State = iota
	// StateValidating means a replacement is being probed. Reads keep using
	// the previous snapshot, if any.
	StateValidating
	// StateActive means a validated configuration and connection are in use.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "VALIDATING"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNINITIALIZED"
	}
}

// MarshalText renders the state by name in JSON and YAML.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

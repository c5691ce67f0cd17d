package pipeline

// State is a step of the interaction loop.
type State int

const (
	AwaitingCredential State = iota
	MenuIdle
	Capturing
	Normalizing
	Extracting
	Translating
	Decoding
	Reporting
	Exit
)

func (s State) String() string {
	switch s {
	case AwaitingCredential:
		return "awaiting-credential"
	case MenuIdle:
		return "menu-idle"
	case Capturing:
		return "capturing"
	case Normalizing:
		return "normalizing"
	case Extracting:
		return "extracting"
	case Translating:
		return "translating"
	case Decoding:
		return "decoding"
	case Reporting:
		return "reporting"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Outcome labels how a menu iteration ended.
type Outcome string

const (
	OutcomeTranslated Outcome = "translated"
	OutcomeNoText     Outcome = "no_text"
	OutcomeFailed     Outcome = "failed"
)

package checkoutflow

// State is a step of the client-side payment flow.
type State int

const (
	Idle State = iota
	Initializing
	AwaitingWidget
	AwaitingCallback
	Verifying
	Succeeded
	Failed
	Cancelled
)

var stateNames = [...]string{
	Idle:             "idle",
	Initializing:     "initializing",
	AwaitingWidget:   "awaiting-widget",
	AwaitingCallback: "awaiting-callback",
	Verifying:        "verifying",
	Succeeded:        "succeeded",
	Failed:           "failed",
	Cancelled:        "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CanSubmit reports whether a new checkout attempt may start from s.
func (s State) CanSubmit() bool {
	return s == Idle || s == Failed || s == Cancelled
}

func (s State) widgetOpen() bool {
	return s == AwaitingWidget || s == AwaitingCallback
}

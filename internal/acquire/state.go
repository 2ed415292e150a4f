package acquire

// State represents the current phase of the acquisition loop.
type State string

// Loop states. One frame is produced per full
// idle -> waiting -> ready -> processing -> idle cycle.
const (
	StateIdle       State = "idle"       // Between cycles
	StateWaiting    State = "waiting"    // Bounded readiness wait armed
	StateReady      State = "ready"      // A buffer is dequeuable
	StateProcessing State = "processing" // Converting and persisting a frame
	StateDraining   State = "draining"   // Loop is shutting down
)

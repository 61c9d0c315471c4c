package adapter

// ConnectivityObserver reports the latest known connectivity state.
type ConnectivityObserver interface {
	Connected() bool
	// Subscribe registers fn for state changes and returns an unsubscribe func.
	Subscribe(fn func(connected bool)) (unsubscribe func())
}

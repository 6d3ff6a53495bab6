package store

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for interacting with a key–value store.
// Every operation reports absence through the boolean return value (ok == false),
// absence is never an error. The error return value is only used by remote
// implementations to report transport failures, local implementations always return nil.
type IStore interface {
	// Get returns the current value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value string, ok bool, err error)
	// Insert sets the value for a key and returns the value that was stored for the key
	// immediately before the call. The boolean return value indicates whether there was such a value.
	Insert(key, value string) (prev string, ok bool, err error)
	// Remove deletes a key–value pair and returns the value that was removed.
	// The boolean return value indicates whether the key existed.
	Remove(key string) (removed string, ok bool, err error)
}

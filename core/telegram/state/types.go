package state

// Store maps a user id to at most one state value.
type Store[S any] interface {
	// Get returns the stored state and whether one exists.
	Get(userID int64) (S, bool)
	// Put replaces any state held for the user.
	Put(userID int64, st S)
	// Delete drops the user's state and reports whether something was removed.
	Delete(userID int64) bool
	// Len reports how many users currently hold a state.
	Len() int
}

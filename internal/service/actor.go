package service

// Actor is the caller context for reservation status transitions. The two
// constructors make the authorization branches explicit: an administrative
// caller may set any status on any reservation, a participant may only cancel
// their own.
type Actor struct {
	userID string
	admin  bool
}

// Admin returns the unrestricted administrative actor.
func Admin() Actor {
	return Actor{admin: true}
}

// Participant returns an actor bound to the given user id.
func Participant(userID string) Actor {
	return Actor{userID: userID}
}

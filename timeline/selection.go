package timeline

// Selection tracks at most one selected event id, client-side only.
// Selecting a new event implicitly deselects the previous one.
type Selection struct {
	eventID string
}

// Set selects an event
func (s *Selection) Set(eventID string) {
	s.eventID = eventID
}

// Clear deselects
func (s *Selection) Clear() {
	s.eventID = ""
}

// EventID returns the selected event id and whether one is selected
func (s *Selection) EventID() (string, bool) {
	return s.eventID, s.eventID != ""
}

// Is reports whether the given event is the selected one
func (s *Selection) Is(eventID string) bool {
	return s.eventID != "" && s.eventID == eventID
}

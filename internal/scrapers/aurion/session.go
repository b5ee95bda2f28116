package aurion

// Session is the server-side page state the portal expects back on every
// submission. Each navigation step takes the session produced by the previous
// one and returns an updated copy, the view state is always the most recent
// one the portal sent.
type Session struct {
	ViewState string

	// root page
	MenuSource string
	SubmenuID  string

	// expanded sidebar
	MenuEntryID string

	// calendar picker
	PickerTable   string
	PickerFilters []string
	PickerSubmit  string

	// schedule page
	ContainerID string
	DisplayName string
}

func (s Session) withViewState(viewState string) Session {
	s.ViewState = viewState
	return s
}

// Schedule is the raw outcome of the navigation sequence for one user.
type Schedule struct {
	UserID      string
	DisplayName string
	ContainerID string
	Body        []byte
}

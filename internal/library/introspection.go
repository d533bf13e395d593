package library

// State describes the library for the status command.
type State struct {
	Key       string `json:"key"`
	Words     int    `json:"words"`
	Saves     int    `json:"saves"`
	Newest    string `json:"newest,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable
func (l *Library) State() any {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := State{Key: l.key, Words: len(l.words), Saves: l.saves}
	if len(l.words) > 0 {
		st.Newest = l.words[0].Character
	}
	if l.lastError != nil {
		st.LastError = l.lastError.Error()
	}
	return st
}

// ComponentType implements introspection.Component
func (l *Library) ComponentType() string {
	return "library"
}

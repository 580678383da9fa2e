package session

import "strings"

// Status is the per-entry connection status shown to the user.
type Status string

const (
	StatusOnline    Status = "Online"
	StatusConnected Status = "Connected"
)

const unnamedDevice = "Unnamed Device"

// Entry is one discovered device known to the session.
type Entry struct {
	Device Device
	Status Status
}

// Name returns the device name as reported by the platform.
func (e Entry) Name() string {
	if e.Device == nil {
		return ""
	}

	return e.Device.Name()
}

// DisplayName returns the name used in lists and messages.
func (e Entry) DisplayName() string {
	return displayName(e.Name())
}

// State is the mutable session state owned by a Manager.
type State struct {
	Known     []Entry
	Active    Device
	Selection string
	Message   string
	Busy      bool
}

// EntryView is a renderer-facing copy of an Entry.
type EntryView struct {
	Name   string
	Status Status
}

// Snapshot is an immutable copy of State for renderers and subscribers.
type Snapshot struct {
	Entries    []EntryView
	ActiveName string
	HasActive  bool
	Selection  string
	Message    string
	Busy       bool
}

func (s State) snapshot() Snapshot {
	entries := make([]EntryView, 0, len(s.Known))
	for _, entry := range s.Known {
		entries = append(entries, EntryView{Name: entry.DisplayName(), Status: entry.Status})
	}
	snap := Snapshot{
		Entries:   entries,
		HasActive: s.Active != nil,
		Selection: s.Selection,
		Message:   s.Message,
		Busy:      s.Busy,
	}
	if s.Active != nil {
		snap.ActiveName = displayName(s.Active.Name())
	}

	return snap
}

// findByName returns the first entry whose device name equals name.
func (s State) findByName(name string) (Entry, bool) {
	for _, entry := range s.Known {
		if entry.Name() == name {
			return entry, true
		}
	}

	return Entry{}, false
}

// updateStatus sets status on every entry holding handle, keeping positions.
func (s *State) updateStatus(handle Device, status Status) {
	if handle == nil {
		return
	}
	for i := range s.Known {
		if s.Known[i].Device == handle {
			s.Known[i].Status = status
		}
	}
}

// demoteConnected marks every Connected entry not holding keep as Online.
// Entries can arrive Connected from a scan without ever being active.
func (s *State) demoteConnected(keep Device) {
	for i := range s.Known {
		if s.Known[i].Status == StatusConnected && s.Known[i].Device != keep {
			s.Known[i].Status = StatusOnline
		}
	}
}

// connectedCount is used by tests to check the single-connection invariant.
func (s State) connectedCount() int {
	n := 0
	for _, entry := range s.Known {
		if entry.Status == StatusConnected {
			n++
		}
	}

	return n
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return unnamedDevice
	}

	return name
}

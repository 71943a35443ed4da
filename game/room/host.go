package room

// GetOrSetHost elects playerID as host if no host is set yet. It returns the
// current host and whether this call established it.
func (s *State) GetOrSetHost(playerID string) (string, bool) {
	if s.hostID != "" {
		return s.hostID, false
	}
	s.hostID = playerID
	return s.hostID, true
}

// HostID returns the current host, or "" if none was elected
func (s *State) HostID() string {
	return s.hostID
}

package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// BlockFocus returns the index of the focused trace block, or -1.
func BlockFocus(m Model) int {
	return m.blockFocus
}

// BlockCount returns the number of blocks in the transcript.
func BlockCount(m Model) int {
	return len(m.blocks)
}

// SetRunning puts the model in a running state.
func SetRunning(m Model) Model {
	m.running = true
	return m
}

// SetRunningWithCancel puts the model in a running state with a cancel
// function.
func SetRunningWithCancel(m Model, cancel func()) Model {
	m.running = true
	m.cancel = cancel
	return m
}

package connection

// Enqueue pushes a message directly onto the internal queue, bypassing the
// read loop. Visible to tests only.
func (m *Manager) Enqueue(msg Message) {
	m.queue <- msg
}

package memory

// WaiterCount returns the number of tasks readers are blocked on
func (b *Backend) WaiterCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}

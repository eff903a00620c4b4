package pagestore

// MemStore is an in-memory Store with no backing file, for unit and
// property-based tests where spinning up a temp file per case is wasted
// effort.
type MemStore struct {
	pages []Page
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Read implements Store.
func (m *MemStore) Read(pid PageID, buf *Page) error {
	if pid >= PageID(len(m.pages)) {
		return &ErrOutOfRange{PID: pid, End: PageID(len(m.pages))}
	}
	*buf = m.pages[pid]
	return nil
}

// Write implements Store. Writing to pid == EndPID() extends the store.
func (m *MemStore) Write(pid PageID, buf *Page) error {
	if pid > PageID(len(m.pages)) {
		return &ErrOutOfRange{PID: pid, End: PageID(len(m.pages))}
	}
	if int(pid) == len(m.pages) {
		m.pages = append(m.pages, *buf)
		return nil
	}
	m.pages[pid] = *buf
	return nil
}

// EndPID implements Store.
func (m *MemStore) EndPID() PageID {
	return PageID(len(m.pages))
}

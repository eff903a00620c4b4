package pagestore

import (
	"fmt"
	"os"
)

// FileStore is a disk-backed Store with an LRU read cache.
//
// Unlike the teacher's pager, FileStore keeps no private header page: the
// index places its root at store page 0 (spec §4.4), so page 0's bytes
// belong entirely to whatever the caller writes there. The page count is
// instead derived from the file's length, which is always an exact
// multiple of PageSize.
type FileStore struct {
	file      *os.File
	cache     *lruCache
	pageCount PageID // = file size / PageSize
}

// OpenFileStore opens or creates a file-backed store at path. cacheSize is
// the number of pages to hold in the read cache.
func OpenFileStore(path string, cacheSize int) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagestore: stat %s: %w", path, err)
	}

	s := &FileStore{
		file:      f,
		cache:     newLRUCache(cacheSize),
		pageCount: PageID(info.Size() / PageSize),
	}
	return s, nil
}

// Read implements Store.
func (s *FileStore) Read(pid PageID, buf *Page) error {
	if pid >= s.pageCount {
		return &ErrOutOfRange{PID: pid, End: s.pageCount}
	}
	if pg := s.cache.get(pid); pg != nil {
		*buf = *pg
		return nil
	}
	pg, err := s.readFromDisk(pid)
	if err != nil {
		return err
	}
	s.cache.put(pid, pg)
	*buf = *pg
	return nil
}

// Write implements Store. Writing to pid == EndPID() extends the store.
func (s *FileStore) Write(pid PageID, buf *Page) error {
	if pid > s.pageCount {
		return &ErrOutOfRange{PID: pid, End: s.pageCount}
	}
	if err := s.writeToDisk(pid, buf); err != nil {
		return err
	}
	cached := *buf
	s.cache.put(pid, &cached)
	if pid == s.pageCount {
		s.pageCount++
	}
	return nil
}

// EndPID implements Store.
func (s *FileStore) EndPID() PageID {
	return s.pageCount
}

// Close flushes and closes the underlying file.
func (s *FileStore) Close() error {
	return s.file.Close()
}

func (s *FileStore) offset(pid PageID) int64 {
	return int64(pid) * PageSize
}

func (s *FileStore) readFromDisk(pid PageID) (*Page, error) {
	pg := new(Page)
	if _, err := s.file.ReadAt(pg[:], s.offset(pid)); err != nil {
		return nil, fmt.Errorf("pagestore: read page %d: %w", pid, err)
	}
	return pg, nil
}

func (s *FileStore) writeToDisk(pid PageID, pg *Page) error {
	if _, err := s.file.WriteAt(pg[:], s.offset(pid)); err != nil {
		return fmt.Errorf("pagestore: write page %d: %w", pid, err)
	}
	return nil
}

// ─── LRU read cache ────────────────────────────────────────────────────────

type lruEntry struct {
	id   PageID
	page *Page
	prev *lruEntry
	next *lruEntry
}

type lruCache struct {
	cap   int
	items map[PageID]*lruEntry
	head  *lruEntry
	tail  *lruEntry
}

func newLRUCache(cap int) *lruCache {
	return &lruCache{cap: cap, items: make(map[PageID]*lruEntry, cap)}
}

func (c *lruCache) get(id PageID) *Page {
	e, ok := c.items[id]
	if !ok {
		return nil
	}
	c.moveToFront(e)
	return e.page
}

func (c *lruCache) put(id PageID, pg *Page) {
	if e, ok := c.items[id]; ok {
		e.page = pg
		c.moveToFront(e)
		return
	}
	if c.cap <= 0 {
		return
	}
	e := &lruEntry{id: id, page: pg}
	c.items[id] = e
	c.pushFront(e)
	if len(c.items) > c.cap {
		c.evict()
	}
}

func (c *lruCache) pushFront(e *lruEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if c.head == e {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
}

func (c *lruCache) evict() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.id)
	if c.tail.prev != nil {
		c.tail.prev.next = nil
	}
	c.tail = c.tail.prev
	if c.tail == nil {
		c.head = nil
	}
}

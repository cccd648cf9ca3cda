package playlist

import (
	"math/rand/v2"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"karolbroda.com/setlist/internal/track"
)

const none = -1

type node struct {
	rec  track.Record
	prev int
	next int
	live bool
}

// Playlist is a doubly-linked sequence of records with a play cursor.
// Nodes live in an arena and link to each other by index, freed slots are
// reused by later inserts. A Playlist is not safe for concurrent use.
type Playlist struct {
	nodes  []node
	free   []int
	head   int
	tail   int
	cursor int
	size   int
}

type Stats struct {
	Count       int
	TotalSecs   int
	AverageSecs int
	Current     *track.Record
}

func New() *Playlist {
	return &Playlist{head: none, tail: none, cursor: none}
}

// FromRecords builds a playlist in the given order with the cursor at the head.
func FromRecords(records []track.Record) *Playlist {
	p := New()
	p.rebuild(records)
	return p
}

func (p *Playlist) Len() int      { return p.size }
func (p *Playlist) IsEmpty() bool { return p.size == 0 }

func (p *Playlist) alloc(rec track.Record) int {
	n := node{rec: rec, prev: none, next: none, live: true}
	if len(p.free) > 0 {
		idx := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.nodes[idx] = n
		return idx
	}
	p.nodes = append(p.nodes, n)
	return len(p.nodes) - 1
}

func (p *Playlist) release(idx int) track.Record {
	rec := p.nodes[idx].rec
	p.nodes[idx] = node{prev: none, next: none}
	p.free = append(p.free, idx)
	return rec
}

func (p *Playlist) find(id string) int {
	for i := p.head; i != none; i = p.nodes[i].next {
		if p.nodes[i].rec.ID == id {
			return i
		}
	}
	return none
}

func (p *Playlist) InsertFirst(rec track.Record) bool {
	idx := p.alloc(rec)

	if p.head == none {
		p.head, p.tail, p.cursor = idx, idx, idx
	} else {
		p.nodes[idx].next = p.head
		p.nodes[p.head].prev = idx
		p.head = idx
	}

	p.size++
	return true
}

func (p *Playlist) InsertLast(rec track.Record) bool {
	idx := p.alloc(rec)

	if p.tail == none {
		p.head, p.tail, p.cursor = idx, idx, idx
	} else {
		p.nodes[idx].prev = p.tail
		p.nodes[p.tail].next = idx
		p.tail = idx
	}

	p.size++
	return true
}

// InsertAfter splices rec in after the first record with targetID.
func (p *Playlist) InsertAfter(targetID string, rec track.Record) bool {
	at := p.find(targetID)
	if at == none {
		return false
	}

	idx := p.alloc(rec)
	next := p.nodes[at].next

	p.nodes[idx].prev = at
	p.nodes[idx].next = next
	if next != none {
		p.nodes[next].prev = idx
	} else {
		p.tail = idx
	}
	p.nodes[at].next = idx

	p.size++
	return true
}

func (p *Playlist) DeleteFirst() (track.Record, bool) {
	if p.head == none {
		return track.Record{}, false
	}

	old := p.head
	if p.head == p.tail {
		p.head, p.tail, p.cursor = none, none, none
	} else {
		if p.cursor == old {
			p.cursor = p.nodes[old].next
		}
		p.head = p.nodes[old].next
		p.nodes[p.head].prev = none
	}

	p.size--
	return p.release(old), true
}

func (p *Playlist) DeleteLast() (track.Record, bool) {
	if p.tail == none {
		return track.Record{}, false
	}

	old := p.tail
	if p.head == p.tail {
		p.head, p.tail, p.cursor = none, none, none
	} else {
		if p.cursor == old {
			p.cursor = p.nodes[old].prev
		}
		p.tail = p.nodes[old].prev
		p.nodes[p.tail].next = none
	}

	p.size--
	return p.release(old), true
}

// DeleteByID removes the first record with id. A cursor on an interior
// node moves to the next node.
func (p *Playlist) DeleteByID(id string) (track.Record, bool) {
	idx := p.find(id)
	if idx == none {
		return track.Record{}, false
	}
	return p.unlink(idx), true
}

// DeleteAt removes the record at forward position index. Unlike DeleteByID it
// is exact when ids repeat.
func (p *Playlist) DeleteAt(index int) (track.Record, bool) {
	idx := p.nodeAt(index)
	if idx == none {
		return track.Record{}, false
	}
	return p.unlink(idx), true
}

func (p *Playlist) unlink(idx int) track.Record {
	switch idx {
	case p.head:
		rec, _ := p.DeleteFirst()
		return rec
	case p.tail:
		rec, _ := p.DeleteLast()
		return rec
	}

	prev, next := p.nodes[idx].prev, p.nodes[idx].next
	if p.cursor == idx {
		p.cursor = next
	}
	p.nodes[prev].next = next
	p.nodes[next].prev = prev

	p.size--
	return p.release(idx)
}

// nodeAt is the arena index at forward position index, none when out of range.
func (p *Playlist) nodeAt(index int) int {
	if index < 0 || index >= p.size {
		return none
	}
	i := p.head
	for ; index > 0; index-- {
		i = p.nodes[i].next
	}
	return i
}

func (p *Playlist) Forward() []track.Record {
	out := make([]track.Record, 0, p.size)
	for i := p.head; i != none; i = p.nodes[i].next {
		out = append(out, p.nodes[i].rec)
	}
	return out
}

func (p *Playlist) Backward() []track.Record {
	out := make([]track.Record, 0, p.size)
	for i := p.tail; i != none; i = p.nodes[i].prev {
		out = append(out, p.nodes[i].rec)
	}
	return out
}

func (p *Playlist) collect(match func(rec *track.Record) bool) []track.Record {
	var out []track.Record
	for i := p.head; i != none; i = p.nodes[i].next {
		if match(&p.nodes[i].rec) {
			out = append(out, p.nodes[i].rec)
		}
	}
	return out
}

// Search matches query as a case-insensitive substring of title, artist or genre.
func (p *Playlist) Search(query string) []track.Record {
	fold := cases.Fold()
	q := fold.String(query)

	return p.collect(func(rec *track.Record) bool {
		return strings.Contains(fold.String(rec.Title), q) ||
			strings.Contains(fold.String(rec.Artist), q) ||
			strings.Contains(fold.String(rec.Genre), q)
	})
}

func (p *Playlist) FilterByGenre(genre string) []track.Record {
	fold := cases.Fold()
	want := fold.String(genre)

	return p.collect(func(rec *track.Record) bool {
		return fold.String(rec.Genre) == want
	})
}

func (p *Playlist) FilterByYear(year int) []track.Record {
	return p.collect(func(rec *track.Record) bool {
		return rec.Year == year
	})
}

func (p *Playlist) Find(id string) (track.Record, bool) {
	idx := p.find(id)
	if idx == none {
		return track.Record{}, false
	}
	return p.nodes[idx].rec, true
}

// Update applies patch to the first record with id.
func (p *Playlist) Update(id string, patch track.Patch) bool {
	idx := p.find(id)
	if idx == none {
		return false
	}
	p.nodes[idx].rec.Apply(patch)
	return true
}

func (p *Playlist) Shuffle() bool {
	return p.ShuffleWith(nil)
}

// ShuffleWith shuffles using rng, or the global source when rng is nil.
func (p *Playlist) ShuffleWith(rng *rand.Rand) bool {
	records := p.Forward()

	swap := func(i, j int) { records[i], records[j] = records[j], records[i] }
	if rng != nil {
		rng.Shuffle(len(records), swap)
	} else {
		rand.Shuffle(len(records), swap)
	}

	p.rebuild(records)
	return true
}

func (p *Playlist) SortByTitle() bool {
	p.sortBy(func(rec *track.Record) string { return rec.Title })
	return true
}

func (p *Playlist) SortByArtist() bool {
	p.sortBy(func(rec *track.Record) string { return rec.Artist })
	return true
}

func (p *Playlist) sortBy(field func(rec *track.Record) string) {
	type keyed struct {
		key string
		rec track.Record
	}

	fold := cases.Fold()
	items := make([]keyed, 0, p.size)
	for i := p.head; i != none; i = p.nodes[i].next {
		rec := p.nodes[i].rec
		items = append(items, keyed{key: fold.String(field(&rec)), rec: rec})
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return strings.Compare(a.key, b.key)
	})

	records := make([]track.Record, len(items))
	for i, it := range items {
		records[i] = it.rec
	}
	p.rebuild(records)
}

// rebuild drops every node and re-inserts records in order, leaving the
// cursor on the new head.
func (p *Playlist) rebuild(records []track.Record) {
	p.nodes = make([]node, 0, len(records))
	p.free = nil
	p.head, p.tail, p.cursor = none, none, none
	p.size = 0

	for _, rec := range records {
		p.InsertLast(rec)
	}
}

func (p *Playlist) PlayNext() (track.Record, bool) {
	if p.cursor == none || p.nodes[p.cursor].next == none {
		return track.Record{}, false
	}
	p.cursor = p.nodes[p.cursor].next
	return p.nodes[p.cursor].rec, true
}

func (p *Playlist) PlayPrevious() (track.Record, bool) {
	if p.cursor == none || p.nodes[p.cursor].prev == none {
		return track.Record{}, false
	}
	p.cursor = p.nodes[p.cursor].prev
	return p.nodes[p.cursor].rec, true
}

func (p *Playlist) Current() (track.Record, bool) {
	if p.cursor == none {
		return track.Record{}, false
	}
	return p.nodes[p.cursor].rec, true
}

// CursorIndex is the forward position of the cursor, -1 when empty.
func (p *Playlist) CursorIndex() int {
	pos := 0
	for i := p.head; i != none; i = p.nodes[i].next {
		if i == p.cursor {
			return pos
		}
		pos++
	}
	return none
}

// Seek moves the cursor to the node at forward position index.
func (p *Playlist) Seek(index int) bool {
	i := p.nodeAt(index)
	if i == none {
		return false
	}
	p.cursor = i
	return true
}

// JumpTo moves the cursor to the first record with id.
func (p *Playlist) JumpTo(id string) (track.Record, bool) {
	idx := p.find(id)
	if idx == none {
		return track.Record{}, false
	}
	p.cursor = idx
	return p.nodes[idx].rec, true
}

func (p *Playlist) TotalDuration() int {
	total := 0
	for i := p.head; i != none; i = p.nodes[i].next {
		total += p.nodes[i].rec.DurationSecs
	}
	return total
}

func (p *Playlist) Stats() Stats {
	s := Stats{Count: p.size, TotalSecs: p.TotalDuration()}
	if s.Count > 0 {
		s.AverageSecs = s.TotalSecs / s.Count
	}
	if cur, ok := p.Current(); ok {
		s.Current = &cur
	}
	return s
}

package playlist

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"karolbroda.com/setlist/internal/track"
)

func rec(id, title, artist, genre string, secs, year int) track.Record {
	return track.Record{
		ID:           id,
		Title:        title,
		Artist:       artist,
		Album:        "album " + id,
		Genre:        genre,
		DurationSecs: secs,
		Year:         year,
		Rating:       4,
	}
}

func ids(records []track.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func currentID(t *testing.T, p *Playlist) string {
	t.Helper()
	cur, ok := p.Current()
	if !ok {
		return ""
	}
	return cur.ID
}

// checkInvariants walks the arena and verifies link consistency.
func checkInvariants(t *testing.T, p *Playlist) {
	t.Helper()
	require := require.New(t)

	if p.size == 0 {
		require.Equal(none, p.head)
		require.Equal(none, p.tail)
		require.Equal(none, p.cursor)
		require.Empty(p.Forward())
		require.Empty(p.Backward())
		return
	}

	require.NotEqual(none, p.head)
	require.NotEqual(none, p.tail)
	require.Equal(none, p.nodes[p.head].prev)
	require.Equal(none, p.nodes[p.tail].next)

	steps := 0
	cursorReachable := false
	last := none
	for i := p.head; i != none; i = p.nodes[i].next {
		require.True(p.nodes[i].live, "node %d reachable but released", i)
		if n := p.nodes[i].next; n != none {
			require.Equal(i, p.nodes[n].prev, "broken back link at %d", i)
		}
		if i == p.cursor {
			cursorReachable = true
		}
		last = i
		steps++
		require.LessOrEqual(steps, p.size, "forward walk longer than size")
	}
	require.Equal(p.size, steps)
	require.Equal(p.tail, last)
	require.True(cursorReachable, "cursor is not a live node")

	steps = 0
	for i := p.tail; i != none; i = p.nodes[i].prev {
		steps++
		require.LessOrEqual(steps, p.size)
	}
	require.Equal(p.size, steps)

	fwd := p.Forward()
	back := p.Backward()
	slices.Reverse(back)
	require.Equal(fwd, back)

	live := 0
	for _, n := range p.nodes {
		if n.live {
			live++
		}
	}
	require.Equal(p.size, live)
	require.Equal(len(p.nodes)-p.size, len(p.free))
}

func TestEmptyPlaylist(t *testing.T) {
	require := require.New(t)
	p := New()

	checkInvariants(t, p)
	require.Zero(p.Len())
	require.True(p.IsEmpty())

	_, ok := p.DeleteFirst()
	require.False(ok)
	_, ok = p.DeleteLast()
	require.False(ok)
	_, ok = p.DeleteByID("x")
	require.False(ok)
	_, ok = p.PlayNext()
	require.False(ok)
	_, ok = p.PlayPrevious()
	require.False(ok)
	_, ok = p.Current()
	require.False(ok)

	require.Empty(p.Search("a"))
	require.Empty(p.FilterByGenre("pop"))
	require.Empty(p.FilterByYear(2000))
	require.Zero(p.TotalDuration())
	require.Equal(-1, p.CursorIndex())
	require.True(p.Shuffle())
	require.True(p.SortByTitle())
	require.False(p.Update("x", track.Patch{}))
	require.False(p.InsertAfter("x", rec("a", "A", "a", "g", 1, 1)))
	checkInvariants(t, p)

	s := p.Stats()
	require.Zero(s.Count)
	require.Zero(s.AverageSecs)
	require.Nil(s.Current)
}

func TestScenarioInsertOrder(t *testing.T) {
	require := require.New(t)
	p := New()

	a := rec("A", "alpha", "x", "Pop", 100, 2001)
	b := rec("B", "beta", "y", "Rock", 200, 2002)
	c := rec("C", "gamma", "z", "Jazz", 300, 2003)

	require.True(p.InsertLast(a))
	require.True(p.InsertLast(b))
	require.True(p.InsertFirst(c))
	checkInvariants(t, p)

	require.Equal([]string{"C", "A", "B"}, ids(p.Forward()))
	require.Equal([]string{"B", "A", "C"}, ids(p.Backward()))
	require.Equal(600, p.TotalDuration())
	require.Equal(3, p.Len())

	// the cursor was set by the first insert into the empty list
	require.Equal("A", currentID(t, p))
}

func TestInsertFirstIntoEmptySetsCursor(t *testing.T) {
	p := New()
	p.InsertFirst(rec("A", "a", "a", "g", 1, 1))
	p.InsertFirst(rec("B", "b", "b", "g", 1, 1))
	checkInvariants(t, p)
	require.Equal(t, "A", currentID(t, p))
	require.Equal(t, 1, p.CursorIndex())
}

func TestInsertAfter(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("A", "a", "a", "g", 1, 1))
	p.InsertLast(rec("B", "b", "b", "g", 1, 1))

	require.True(p.InsertAfter("A", rec("X", "x", "x", "g", 1, 1)))
	require.Equal([]string{"A", "X", "B"}, ids(p.Forward()))
	checkInvariants(t, p)

	// after the tail the new node becomes the tail
	require.True(p.InsertAfter("B", rec("Y", "y", "y", "g", 1, 1)))
	require.Equal([]string{"A", "X", "B", "Y"}, ids(p.Forward()))
	require.Equal(p.tail, p.find("Y"))
	checkInvariants(t, p)

	before := p.Forward()
	require.False(p.InsertAfter("missing", rec("Z", "z", "z", "g", 1, 1)))
	require.Equal(before, p.Forward())
	require.Equal(4, p.Len())
}

func TestInsertAfterDuplicateIDFirstMatchWins(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("A", "first", "a", "g", 1, 1))
	p.InsertLast(rec("B", "b", "b", "g", 1, 1))
	p.InsertLast(rec("A", "second", "a", "g", 1, 1))

	require.True(p.InsertAfter("A", rec("X", "x", "x", "g", 1, 1)))
	require.Equal([]string{"A", "X", "B", "A"}, ids(p.Forward()))

	got, ok := p.Find("A")
	require.True(ok)
	require.Equal("first", got.Title)

	removed, ok := p.DeleteByID("A")
	require.True(ok)
	require.Equal("first", removed.Title)
	require.Equal([]string{"X", "B", "A"}, ids(p.Forward()))
	checkInvariants(t, p)
}

func TestInsertDeleteInverse(t *testing.T) {
	require := require.New(t)
	p := New()
	for i := 0; i < 4; i++ {
		p.InsertLast(rec(fmt.Sprint(i), "t", "a", "g", 10, 2000))
	}
	before := p.Forward()
	size := p.Len()

	r := rec("new", "n", "n", "g", 42, 1999)
	p.InsertLast(r)
	removed, ok := p.DeleteLast()
	require.True(ok)
	require.Equal(r, removed)
	require.Equal(size, p.Len())
	require.Equal(before, p.Forward())
	checkInvariants(t, p)
}

func TestDeleteSingleElement(t *testing.T) {
	for name, del := range map[string]func(p *Playlist) (track.Record, bool){
		"first": (*Playlist).DeleteFirst,
		"last":  (*Playlist).DeleteLast,
		"byID":  func(p *Playlist) (track.Record, bool) { return p.DeleteByID("A") },
	} {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			p := New()
			p.InsertLast(rec("A", "a", "a", "g", 1, 1))

			removed, ok := del(p)
			require.True(ok)
			require.Equal("A", removed.ID)
			require.True(p.IsEmpty())
			checkInvariants(t, p)

			// the list is usable again after becoming empty
			p.InsertLast(rec("B", "b", "b", "g", 1, 1))
			require.Equal("B", currentID(t, p))
			checkInvariants(t, p)
		})
	}
}

func threeTracks() *Playlist {
	p := New()
	p.InsertLast(rec("A", "a", "a", "g", 1, 1))
	p.InsertLast(rec("B", "b", "b", "g", 2, 1))
	p.InsertLast(rec("C", "c", "c", "g", 3, 1))
	return p
}

func TestDeleteAt(t *testing.T) {
	t.Run("repeated ids remove the given position", func(t *testing.T) {
		require := require.New(t)
		p := New()
		p.InsertLast(rec("A", "first", "a", "g", 1, 1))
		p.InsertLast(rec("B", "b", "b", "g", 1, 1))
		p.InsertLast(rec("A", "second", "a", "g", 1, 1))
		require.True(p.Seek(2))

		removed, ok := p.DeleteAt(2)
		require.True(ok)
		require.Equal("second", removed.Title)
		require.Equal([]string{"A", "B"}, ids(p.Forward()))
		require.Equal("B", currentID(t, p))
		checkInvariants(t, p)

		removed, ok = p.DeleteAt(0)
		require.True(ok)
		require.Equal("first", removed.Title)
		require.Equal([]string{"B"}, ids(p.Forward()))
		checkInvariants(t, p)
	})

	t.Run("interior cursor moves to next", func(t *testing.T) {
		require := require.New(t)
		p := threeTracks()
		require.True(p.Seek(1))

		removed, ok := p.DeleteAt(1)
		require.True(ok)
		require.Equal("B", removed.ID)
		require.Equal("C", currentID(t, p))
		checkInvariants(t, p)
	})

	t.Run("out of range", func(t *testing.T) {
		require := require.New(t)
		p := threeTracks()
		for _, index := range []int{-1, 3} {
			_, ok := p.DeleteAt(index)
			require.False(ok)
		}
		require.Equal(3, p.Len())

		_, ok := New().DeleteAt(0)
		require.False(ok)
	})
}

func TestCursorRelocation(t *testing.T) {
	t.Run("interior delete moves to next", func(t *testing.T) {
		p := threeTracks()
		_, ok := p.PlayNext()
		require.True(t, ok)
		require.Equal(t, "B", currentID(t, p))

		_, ok = p.DeleteByID("B")
		require.True(t, ok)
		require.Equal(t, "C", currentID(t, p))
		checkInvariants(t, p)
	})

	t.Run("delete last at tail moves to prev", func(t *testing.T) {
		p := threeTracks()
		p.PlayNext()
		p.PlayNext()
		require.Equal(t, "C", currentID(t, p))

		_, ok := p.DeleteLast()
		require.True(t, ok)
		require.Equal(t, "B", currentID(t, p))
		checkInvariants(t, p)
	})

	t.Run("delete first at head moves to new head", func(t *testing.T) {
		p := threeTracks()
		_, ok := p.DeleteFirst()
		require.True(t, ok)
		require.Equal(t, "B", currentID(t, p))
		checkInvariants(t, p)
	})

	t.Run("delete by id at tail delegates", func(t *testing.T) {
		p := threeTracks()
		p.JumpTo("C")
		_, ok := p.DeleteByID("C")
		require.True(t, ok)
		require.Equal(t, "B", currentID(t, p))
		checkInvariants(t, p)
	})

	t.Run("delete elsewhere keeps cursor", func(t *testing.T) {
		p := threeTracks()
		p.JumpTo("B")
		p.DeleteFirst()
		require.Equal(t, "B", currentID(t, p))
		p.DeleteLast()
		require.Equal(t, "B", currentID(t, p))
		checkInvariants(t, p)
	})
}

func TestBoundaryNavigation(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("A", "a", "a", "g", 1, 1))
	p.InsertLast(rec("B", "b", "b", "g", 1, 1))

	_, ok := p.PlayPrevious()
	require.False(ok)
	require.Equal("A", currentID(t, p))

	next, ok := p.PlayNext()
	require.True(ok)
	require.Equal("B", next.ID)

	_, ok = p.PlayNext()
	require.False(ok)
	require.Equal("B", currentID(t, p))

	prev, ok := p.PlayPrevious()
	require.True(ok)
	require.Equal("A", prev.ID)
}

func TestSortByTitleStable(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("1", "banana", "x", "g", 1, 1))
	p.InsertLast(rec("2", "Apple", "x", "g", 1, 1))
	p.InsertLast(rec("3", "cherry", "x", "g", 1, 1))
	p.InsertLast(rec("4", "apple", "x", "g", 1, 1))
	p.PlayNext()

	require.True(p.SortByTitle())
	titles := make([]string, 0, p.Len())
	for _, r := range p.Forward() {
		titles = append(titles, r.Title)
	}
	require.Equal([]string{"Apple", "apple", "banana", "cherry"}, titles)

	// rebuild puts the cursor back on the head
	require.Equal("2", currentID(t, p))
	checkInvariants(t, p)
}

func TestSortByArtist(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("1", "t", "queen", "g", 1, 1))
	p.InsertLast(rec("2", "t", "ABBA", "g", 1, 1))
	p.InsertLast(rec("3", "t", "Muse", "g", 1, 1))

	require.True(p.SortByArtist())
	require.Equal([]string{"2", "3", "1"}, ids(p.Forward()))
	checkInvariants(t, p)
}

func TestSearch(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("1", "Yellow", "Coldplay", "Pop Rock", 1, 2000))
	p.InsertLast(rec("2", "Clocks", "Coldplay", "Alternative", 1, 2002))
	p.InsertLast(rec("3", "Rocket Man", "Elton John", "Pop", 1, 1972))
	p.InsertLast(rec("4", "Hello", "Adele", "Soul", 1, 2015))

	require.Equal([]string{"1", "3"}, ids(p.Search("rock")))
	require.Equal([]string{"1", "2"}, ids(p.Search("COLD")))
	require.Equal([]string{"4"}, ids(p.Search("adele")))
	require.Empty(p.Search("zzz"))
	// album is not searched
	require.Empty(p.Search("album"))
	require.Len(p.Search(""), 4)
}

func TestFilters(t *testing.T) {
	require := require.New(t)
	p := New()
	p.InsertLast(rec("1", "a", "x", "Pop", 1, 2000))
	p.InsertLast(rec("2", "b", "x", "Pop Rock", 1, 2001))
	p.InsertLast(rec("3", "c", "x", "pop", 1, 2000))

	require.Equal([]string{"1", "3"}, ids(p.FilterByGenre("POP")))
	require.Empty(p.FilterByGenre("rock"))
	require.Equal([]string{"1", "3"}, ids(p.FilterByYear(2000)))
	require.Empty(p.FilterByYear(1999))
}

func TestUpdate(t *testing.T) {
	require := require.New(t)
	p := threeTracks()

	title := "renamed"
	rating := 5.0
	require.True(p.Update("B", track.Patch{Title: &title, Rating: &rating}))

	got, ok := p.Find("B")
	require.True(ok)
	require.Equal("renamed", got.Title)
	require.Equal("b", got.Artist)
	require.InDelta(5.0, got.Rating, 0.0001)

	before := p.Forward()
	require.False(p.Update("missing", track.Patch{Title: &title}))
	require.Equal(before, p.Forward())
}

func TestShufflePreservesMultiset(t *testing.T) {
	require := require.New(t)
	p := New()
	for i := 0; i < 50; i++ {
		p.InsertLast(rec(fmt.Sprintf("%02d", i), "t", "a", "g", i, 2000))
	}
	before := ids(p.Forward())

	require.True(p.ShuffleWith(rand.New(rand.NewPCG(1, 2))))
	after := ids(p.Forward())
	require.Equal(50, p.Len())
	require.ElementsMatch(before, after)
	require.NotEqual(before, after)
	require.Equal(after[0], currentID(t, p))
	checkInvariants(t, p)

	require.True(p.Shuffle())
	require.ElementsMatch(before, ids(p.Forward()))
	checkInvariants(t, p)
}

func TestShuffleSingleton(t *testing.T) {
	p := New()
	p.InsertLast(rec("A", "a", "a", "g", 1, 1))
	require.True(t, p.Shuffle())
	require.Equal(t, []string{"A"}, ids(p.Forward()))
	checkInvariants(t, p)
}

func TestSeekAndJump(t *testing.T) {
	require := require.New(t)
	p := threeTracks()

	require.True(p.Seek(2))
	require.Equal("C", currentID(t, p))
	require.Equal(2, p.CursorIndex())

	require.False(p.Seek(3))
	require.False(p.Seek(-1))
	require.Equal("C", currentID(t, p))

	r, ok := p.JumpTo("A")
	require.True(ok)
	require.Equal("A", r.ID)
	require.Equal(0, p.CursorIndex())

	_, ok = p.JumpTo("nope")
	require.False(ok)
	require.Equal("A", currentID(t, p))
}

func TestStats(t *testing.T) {
	require := require.New(t)
	p := threeTracks()
	p.PlayNext()

	s := p.Stats()
	require.Equal(3, s.Count)
	require.Equal(6, s.TotalSecs)
	require.Equal(2, s.AverageSecs)
	require.NotNil(s.Current)
	require.Equal("B", s.Current.ID)
}

func TestFromRecords(t *testing.T) {
	require := require.New(t)
	p := FromRecords([]track.Record{rec("A", "a", "a", "g", 1, 1), rec("B", "b", "b", "g", 1, 1)})
	require.Equal([]string{"A", "B"}, ids(p.Forward()))
	require.Equal("A", currentID(t, p))
	checkInvariants(t, p)
}

func TestFreeSlotsReused(t *testing.T) {
	require := require.New(t)
	p := threeTracks()
	p.DeleteByID("B")
	p.DeleteFirst()
	require.Len(p.free, 2)

	p.InsertFirst(rec("D", "d", "d", "g", 1, 1))
	p.InsertAfter("D", rec("E", "e", "e", "g", 1, 1))
	require.Empty(p.free)
	require.Len(p.nodes, 3)
	require.Equal([]string{"D", "E", "C"}, ids(p.Forward()))
	checkInvariants(t, p)
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	p := New()
	model := []string{}
	next := 0

	for step := 0; step < 2000; step++ {
		id := fmt.Sprintf("t%d", next)
		switch rng.IntN(10) {
		case 0:
			p.InsertFirst(rec(id, id, "a", "g", 1, 1))
			model = append([]string{id}, model...)
			next++
		case 1:
			p.InsertLast(rec(id, id, "a", "g", 1, 1))
			model = append(model, id)
			next++
		case 2:
			if len(model) > 0 {
				target := model[rng.IntN(len(model))]
				require.True(t, p.InsertAfter(target, rec(id, id, "a", "g", 1, 1)))
				pos := slices.Index(model, target)
				model = slices.Insert(model, pos+1, id)
				next++
			}
		case 3:
			_, ok := p.DeleteFirst()
			require.Equal(t, len(model) > 0, ok)
			if ok {
				model = model[1:]
			}
		case 4:
			_, ok := p.DeleteLast()
			require.Equal(t, len(model) > 0, ok)
			if ok {
				model = model[:len(model)-1]
			}
		case 5:
			if len(model) > 0 {
				target := model[rng.IntN(len(model))]
				_, ok := p.DeleteByID(target)
				require.True(t, ok)
				model = slices.Delete(model, slices.Index(model, target), slices.Index(model, target)+1)
			}
		case 6:
			p.PlayNext()
		case 7:
			p.PlayPrevious()
		case 8:
			if rng.IntN(20) == 0 {
				p.ShuffleWith(rng)
				model = ids(p.Forward())
			}
		case 9:
			if rng.IntN(20) == 0 {
				p.SortByTitle()
				model = ids(p.Forward())
			}
		}

		require.Equal(t, model, ids(p.Forward()), "step %d", step)
		checkInvariants(t, p)
	}
}

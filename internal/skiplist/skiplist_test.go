package skiplist

import (
	"bytes"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lsmgo/internal/keys"
)

func testConfig(threshold uint64) Config {
	userCmp := keys.CompareFunc(bytes.Compare)
	return Config{
		CompareEntries:    keys.EntryCompare(userCmp),
		CompareTags:       keys.CompareTags,
		SameUserKey:       keys.SameUserKey(userCmp),
		HotThresholdBytes: threshold,
	}
}

func entry(seq uint64, key, value string) []byte {
	buf := make([]byte, keys.EntrySize(len(key), len(value)))
	keys.EncodeEntry(buf, seq, keys.KindValue, []byte(key), []byte(value))
	return buf
}

func billed(e []byte) uint64 {
	return uint64(len(e)) + NodeOverheadEstimate
}

func collectKeys(l *List) []string {
	var got []string
	it := l.NewIterator()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		got = append(got, string(keys.UserKey(it.Entry())))
	}
	return got
}

func collectFIFOSeqs(l *List) []uint64 {
	var got []uint64
	it := l.NewFIFOIterator()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		seq, _ := keys.Tag(it.Entry())
		got = append(got, seq)
	}
	return got
}

func TestListInsertAndScan(t *testing.T) {
	l := New(testConfig(1 << 20))

	l.Insert(entry(3, "banana", "b"))
	l.Insert(entry(1, "apple", "a"))
	l.Insert(entry(2, "cherry", "c"))

	want := []string{"apple", "banana", "cherry"}
	got := collectKeys(l)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if !l.Contains(entry(1, "apple", "")) {
		t.Error("apple@1 should be in the list")
	}
	if l.Contains(entry(9, "apple", "")) {
		t.Error("apple@9 should not be in the list")
	}
}

func TestListVersionOrdering(t *testing.T) {
	l := New(testConfig(1 << 20))

	l.Insert(entry(1, "k", "old"))
	l.Insert(entry(5, "k", "mid"))
	l.Insert(entry(9, "k", "new"))

	it := l.NewIterator()
	it.SeekToFirst()
	var seqs []uint64
	for ; it.Valid(); it.Next() {
		seq, _ := keys.Tag(it.Entry())
		seqs = append(seqs, seq)
	}
	// Newest first within a user key.
	if len(seqs) != 3 || seqs[0] != 9 || seqs[1] != 5 || seqs[2] != 1 {
		t.Errorf("got %v, want [9 5 1]", seqs)
	}
}

func TestIteratorSeekPrevLast(t *testing.T) {
	l := New(testConfig(1 << 20))
	for i := 1; i <= 5; i++ {
		l.Insert(entry(uint64(i), fmt.Sprintf("k%d", i), "v"))
	}

	it := l.NewIterator()

	it.Seek(entry(3, "k3", ""))
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k3" {
		t.Fatal("seek k3 failed")
	}

	it.Prev()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k2" {
		t.Error("prev from k3 should land on k2")
	}

	it.SeekToLast()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k5" {
		t.Error("seek to last should land on k5")
	}

	it.SeekToFirst()
	it.Prev()
	if it.Valid() {
		t.Error("prev from the first entry should invalidate")
	}

	// Seek past the end.
	it.Seek(entry(9, "zzz", ""))
	if it.Valid() {
		t.Error("seek past the end should invalidate")
	}
}

func TestInsertDuplicatePanics(t *testing.T) {
	l := New(testConfig(1 << 20))
	l.Insert(entry(1, "k", "v"))

	defer func() {
		if recover() == nil {
			t.Error("duplicate insert should panic")
		}
	}()
	l.Insert(entry(1, "k", "v"))
}

func TestFIFOAllHot(t *testing.T) {
	l := New(testConfig(1 << 20))

	e1 := entry(1, "k1", "v1")
	e2 := entry(2, "k2", "v2")
	l.Insert(e1)
	l.Insert(e2)

	if got := l.HotBytes(); got != billed(e1)+billed(e2) {
		t.Errorf("hot bytes: got %d, want %d", got, billed(e1)+billed(e2))
	}
	if got := l.ColdBytes(); got != 0 {
		t.Errorf("cold bytes: got %d, want 0", got)
	}

	oldest, ok := l.OldestHotEntry()
	if !ok || string(keys.UserKey(oldest)) != "k1" {
		t.Error("oldest hot should be the first insert")
	}
}

func TestFIFODemotion(t *testing.T) {
	e := entry(1, "k1", "v1")
	// Room for exactly two nodes.
	l := New(testConfig(2 * billed(e)))

	l.Insert(entry(1, "k1", "v1"))
	l.Insert(entry(2, "k2", "v2"))
	l.Insert(entry(3, "k3", "v3"))

	if got := l.HotBytes(); got != 2*billed(e) {
		t.Errorf("hot bytes: got %d, want %d", got, 2*billed(e))
	}
	if got := l.ColdBytes(); got != billed(e) {
		t.Errorf("cold bytes: got %d, want %d", got, billed(e))
	}

	oldest, ok := l.OldestHotEntry()
	if !ok || string(keys.UserKey(oldest)) != "k2" {
		t.Error("k2 should be the oldest hot after demoting k1")
	}

	it := l.NewFIFOIterator()
	it.SeekToFirst()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k1" {
		t.Error("chain head should still be k1")
	}
	it.SeekToOldestHot()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k2" {
		t.Error("oldest hot position should be k2")
	}
}

func TestFIFOOversizedNodeGoesCold(t *testing.T) {
	small := entry(1, "k1", "v1")
	l := New(testConfig(billed(small) + 10))

	l.Insert(small)

	big := entry(2, "big", string(bytes.Repeat([]byte("x"), 200)))
	l.Insert(big)

	// The oversized insert drains the hot segment and lands cold
	// itself.
	if got := l.HotBytes(); got != 0 {
		t.Errorf("hot bytes: got %d, want 0", got)
	}
	if got := l.ColdBytes(); got != billed(small)+billed(big) {
		t.Errorf("cold bytes: got %d", got)
	}
	if _, ok := l.OldestHotEntry(); ok {
		t.Error("hot segment should be empty")
	}

	// A subsequent small insert re-seeds the hot segment.
	next := entry(3, "k3", "v3")
	l.Insert(next)
	oldest, ok := l.OldestHotEntry()
	if !ok || string(keys.UserKey(oldest)) != "k3" {
		t.Error("k3 should become the new oldest hot")
	}
	if got := l.HotBytes(); got != billed(next) {
		t.Errorf("hot bytes: got %d, want %d", got, billed(next))
	}
}

func TestRetire(t *testing.T) {
	l := New(testConfig(1 << 20))

	e1 := entry(1, "k1", "v1")
	e2 := entry(2, "k2", "v2")
	e3 := entry(3, "k3", "v3")
	l.Insert(e1)
	l.Insert(e2)
	l.Insert(e3)

	// Middle of the chain.
	l.Retire(e2, true)

	if got := collectFIFOSeqs(l); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("chain after retiring middle: %v", got)
	}
	if got := collectKeys(l); len(got) != 2 || got[0] != "k1" || got[1] != "k3" {
		t.Errorf("index after retiring middle: %v", got)
	}
	if got := l.RetiredBytes(); got != billed(e2) {
		t.Errorf("retired bytes: got %d, want %d", got, billed(e2))
	}
	if l.Contains(e2) {
		t.Error("retired entry must leave the index")
	}

	// Head of the chain.
	l.Retire(e1, true)
	if got := collectFIFOSeqs(l); len(got) != 1 || got[0] != 3 {
		t.Errorf("chain after retiring head: %v", got)
	}

	// Tail of the chain.
	l.Retire(e3, true)
	if got := collectFIFOSeqs(l); got != nil {
		t.Errorf("chain after retiring tail: %v", got)
	}
	if got := l.HotBytes(); got != 0 {
		t.Errorf("hot bytes after retiring everything: got %d", got)
	}
	if got := l.RetiredBytes(); got != billed(e1)+billed(e2)+billed(e3) {
		t.Errorf("retired bytes: got %d", got)
	}
}

func TestRetireColdHead(t *testing.T) {
	small := entry(1, "k1", "v1")
	l := New(testConfig(2 * billed(small)))

	e1 := entry(1, "k1", "v1")
	e2 := entry(2, "k2", "v2")
	e3 := entry(3, "k3", "v3")
	l.Insert(e1)
	l.Insert(e2)
	l.Insert(e3) // demotes k1 to cold

	l.Retire(e1, false)

	if got := l.ColdBytes(); got != 0 {
		t.Errorf("cold bytes after retiring the only cold node: got %d", got)
	}
	it := l.NewFIFOIterator()
	it.SeekToFirst()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k2" {
		t.Error("chain head should advance to k2")
	}
	it.Prev()
	if it.Valid() {
		t.Error("new chain head must have no predecessor")
	}
}

func TestRewriteLevel0(t *testing.T) {
	l := New(testConfig(1 << 20))

	l.Insert(entry(1, "a", "v1"))
	l.Insert(entry(2, "a", "v2"))
	l.Insert(entry(3, "b", "v3"))
	l.Insert(entry(4, "c", "v4"))

	// Keep everything at or below sequence 3, newest per user key.
	l.RewriteLevel0(func(e []byte) bool {
		seq, _ := keys.Tag(e)
		return seq <= 3
	})
	l.SetLevel0Only()

	it := l.NewIterator()
	var got []string
	for it.SeekToFirst(); it.Valid(); it.Next() {
		seq, _ := keys.Tag(it.Entry())
		got = append(got, fmt.Sprintf("%s@%d", keys.UserKey(it.Entry()), seq))
	}
	want := []string{"a@2", "b@3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRewriteLevel0KeepsNewestPerKey(t *testing.T) {
	l := New(testConfig(1 << 20))

	l.Insert(entry(1, "a", "v1"))
	l.Insert(entry(2, "a", "v2"))
	l.Insert(entry(3, "a", "v3"))

	l.RewriteLevel0(func([]byte) bool { return true })
	l.SetLevel0Only()

	it := l.NewIterator()
	it.SeekToFirst()
	if !it.Valid() {
		t.Fatal("list should not be empty")
	}
	seq, _ := keys.Tag(it.Entry())
	if seq != 3 {
		t.Errorf("survivor sequence: got %d, want 3", seq)
	}
	it.Next()
	if it.Valid() {
		t.Error("only one version should survive")
	}
}

func TestSetHeadAndLevel0Scans(t *testing.T) {
	l := New(testConfig(1 << 20))

	for i := 1; i <= 4; i++ {
		l.Insert(entry(uint64(i), fmt.Sprintf("k%d", i), "v"))
	}

	l.SetHead(entry(3, "k3", ""))
	l.SetLevel0Only()

	if got := collectKeys(l); len(got) != 2 || got[0] != "k3" || got[1] != "k4" {
		t.Errorf("after set head: %v", got)
	}

	// Seeks and reverse scans must work through the level-0 chain.
	it := l.NewIterator()
	it.Seek(entry(4, "k4", ""))
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k4" {
		t.Error("seek through level 0 failed")
	}
	it.SeekToLast()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k4" {
		t.Error("seek to last through level 0 failed")
	}
	it.Prev()
	if !it.Valid() || string(keys.UserKey(it.Entry())) != "k3" {
		t.Error("prev through level 0 failed")
	}
}

func TestConcurrentReaders(t *testing.T) {
	l := New(testConfig(1 << 20))

	const n = 2000
	done := make(chan struct{})

	var g errgroup.Group
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				// Scans must only ever observe fully published nodes in
				// strictly ascending key order.
				var last []byte
				it := l.NewIterator()
				for it.SeekToFirst(); it.Valid(); it.Next() {
					k := keys.UserKey(it.Entry())
					if last != nil && bytes.Compare(last, k) > 0 {
						return fmt.Errorf("out of order: %q after %q", k, last)
					}
					last = k
				}
			}
		})
	}

	for i := 0; i < n; i++ {
		l.Insert(entry(uint64(i+1), fmt.Sprintf("key-%06d", i), "v"))
	}
	close(done)

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

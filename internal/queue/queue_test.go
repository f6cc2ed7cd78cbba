package queue

import "testing"

func TestPriorityOrder(t *testing.T) {
	q := New()
	q.Push(NewTask("a", "A", "na1", Low))
	q.Push(NewTask("b", "B", "na1", Medium))
	q.Push(NewTask("c", "C", "na1", High))

	order := []string{}
	for {
		t, ok := q.Pop()
		if !ok {
			break
		}
		order = append(order, t.Pid)
	}
	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestFIFOWithinBand(t *testing.T) {
	q := New()
	q.Push(NewTask("1", "", "na1", Low))
	q.Push(NewTask("2", "", "na1", Low))
	q.Push(NewTask("3", "", "na1", Low))

	for _, want := range []string{"1", "2", "3"} {
		got, ok := q.Pop()
		if !ok || got.Pid != want {
			t.Fatalf("expected %s, got %v (ok=%v)", want, got, ok)
		}
	}
}

func TestSizes(t *testing.T) {
	q := New()
	q.Push(NewTask("a", "", "na1", High))
	q.Push(NewTask("b", "", "na1", Medium))
	q.Push(NewTask("c", "", "na1", Medium))
	q.Push(NewTask("d", "", "na1", Low))

	h, m, l := q.Size()
	if h != 1 || m != 2 || l != 1 {
		t.Fatalf("expected (1,2,1), got (%d,%d,%d)", h, m, l)
	}
	if q.TotalSize() != 4 {
		t.Fatalf("expected total 4, got %d", q.TotalSize())
	}
	if q.IsEmpty() {
		t.Fatal("expected non-empty")
	}
}

func TestBatchPush(t *testing.T) {
	q := New()
	q.PushBatch([]SummonerTask{
		NewTask("a", "", "na1", Low),
		NewTask("b", "", "na1", High),
		NewTask("c", "", "na1", Medium),
	})
	h, m, l := q.Size()
	if h != 1 || m != 1 || l != 1 {
		t.Fatalf("expected (1,1,1), got (%d,%d,%d)", h, m, l)
	}
}

func TestRemoveDuplicatesKeepsFirstOccurrence(t *testing.T) {
	q := New()
	q.Push(NewTask("x", "first", "na1", Low))
	q.Push(NewTask("y", "", "na1", Low))
	q.Push(NewTask("x", "second", "na1", Low))

	q.RemoveDuplicates()
	if q.TotalSize() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", q.TotalSize())
	}
	first, ok := q.Pop()
	if !ok || first.Pid != "x" || first.DisplayName != "first" {
		t.Fatalf("expected first occurrence of x to survive, got %+v", first)
	}
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	q := New()
	q.Push(NewTask("x", "", "na1", Low))
	q.Push(NewTask("x", "", "na1", Low))
	q.RemoveDuplicates()
	sizeAfterFirst := q.TotalSize()
	q.RemoveDuplicates()
	if q.TotalSize() != sizeAfterFirst {
		t.Fatalf("expected idempotent dedup, got %d then %d", sizeAfterFirst, q.TotalSize())
	}
}

package queue

import (
	"container/heap"
	"testing"
	"time"
)

func TestTaskHeap_OrdersByPriorityThenCreatedAt(t *testing.T) {
	now := time.Now()
	h := &taskHeap{}
	heap.Init(h)

	heap.Push(h, &Task{ID: "a", Priority: PriorityLow, CreatedAt: now})
	heap.Push(h, &Task{ID: "b", Priority: PriorityCritical, CreatedAt: now.Add(time.Second)})
	heap.Push(h, &Task{ID: "c", Priority: PriorityCritical, CreatedAt: now})
	heap.Push(h, &Task{ID: "d", Priority: PriorityNormal, CreatedAt: now})

	var order []string
	for h.Len() > 0 {
		order = append(order, heap.Pop(h).(*Task).ID)
	}

	want := []string{"c", "b", "d", "a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

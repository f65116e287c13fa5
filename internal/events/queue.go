package events

import "sync"

// Publisher 是环节向队列投递事件的最小接口。
type Publisher interface {
	Enqueue(e Event)
}

// Queue 为无界、并发安全的 FIFO 事件队列。
// 入队从不阻塞也从不丢弃；nil 事件作为停机哨兵原样传递。
type Queue struct {
	mu    sync.Mutex
	items []Event
	head  int
}

// NewQueue 创建空队列。
func NewQueue() *Queue {
	return &Queue{items: make([]Event, 0, 64)}
}

// Enqueue 将事件追加到队尾。
func (q *Queue) Enqueue(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
}

// Stop 投递停机哨兵。
func (q *Queue) Stop() {
	q.Enqueue(nil)
}

// TryDequeue 非阻塞地取出队首事件。队列为空时 ok 为 false；
// 取到哨兵时返回 (nil, true)。
func (q *Queue) TryDequeue() (e Event, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return nil, false
	}

	e = q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// 已消费部分超过一半时压缩底层数组。
	if q.head >= 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		for i := n; i < len(q.items); i++ {
			q.items[i] = nil
		}
		q.items = q.items[:n]
		q.head = 0
	}

	return e, true
}

// Len 返回待处理事件数量。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

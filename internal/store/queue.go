package store

import (
	"wisefido-vitals/internal/models"
)

// DefaultQueueCapacity 实时队列默认容量
const DefaultQueueCapacity = 5000

// LiveQueue 定长 FIFO（环形缓冲），满时丢弃最旧的一条
// 本身不加锁：由 arbiter 的状态锁统一保护（模式切换和清空必须一起被观察到）
type LiveQueue struct {
	buf  []models.Reading
	head int
	size int
}

// NewLiveQueue 创建队列，capacity <= 0 时使用默认容量
func NewLiveQueue(capacity int) *LiveQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &LiveQueue{buf: make([]models.Reading, capacity)}
}

// Push 追加一条；队列已满时先移除最旧的一条，返回是否发生了丢弃
func (q *LiveQueue) Push(r models.Reading) (dropped bool) {
	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		dropped = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = r
	q.size++
	return dropped
}

// Pop 取出最旧的一条；队列为空时 ok=false，不阻塞
func (q *LiveQueue) Pop() (r models.Reading, ok bool) {
	if q.size == 0 {
		return models.Reading{}, false
	}
	r = q.buf[q.head]
	q.buf[q.head] = models.Reading{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return r, true
}

func (q *LiveQueue) Len() int { return q.size }

func (q *LiveQueue) Cap() int { return len(q.buf) }

// Clear 清空队列
func (q *LiveQueue) Clear() {
	for i := range q.buf {
		q.buf[i] = models.Reading{}
	}
	q.head = 0
	q.size = 0
}

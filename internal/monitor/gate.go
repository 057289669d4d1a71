package monitor

import "sync"

// permitGate 容量可上调的计数信号量
//
// 压测的并发上限随每个周期的目标负载逐步抬升，
// 同一轮压测内容量只增不减。
type permitGate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	inUse    int
}

// newPermitGate 创建指定容量的并发闸门
func newPermitGate(capacity int) *permitGate {
	g := &permitGate{capacity: capacity}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Raise 将容量上调到 n，n 小于当前容量时不做任何调整
func (g *permitGate) Raise(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n <= g.capacity {
		return
	}
	g.capacity = n
	g.cond.Broadcast()
}

// Acquire 获取一个许可，容量耗尽时阻塞等待
func (g *permitGate) Acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.inUse >= g.capacity {
		g.cond.Wait()
	}
	g.inUse++
}

// Release 归还一个许可
func (g *permitGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inUse--
	g.cond.Signal()
}

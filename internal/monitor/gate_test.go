package monitor

import (
	"testing"
	"time"
)

func TestPermitGateBlocksAtCapacity(t *testing.T) {
	gate := newPermitGate(2)
	gate.Acquire()
	gate.Acquire()

	acquired := make(chan struct{})
	go func() {
		gate.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("容量耗尽时第三次获取应阻塞")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("归还许可后等待者应被唤醒")
	}
}

func TestPermitGateRaise(t *testing.T) {
	gate := newPermitGate(1)
	gate.Acquire()

	acquired := make(chan struct{})
	go func() {
		gate.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("容量为 1 时第二次获取应阻塞")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Raise(2)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("上调容量后等待者应被唤醒")
	}
}

func TestPermitGateRaiseNeverShrinks(t *testing.T) {
	gate := newPermitGate(3)
	gate.Raise(1) // 容量只增不减，应被忽略

	done := make(chan struct{})
	go func() {
		gate.Acquire()
		gate.Acquire()
		gate.Acquire()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("下调容量应被忽略，3 个许可都应能获取")
	}
}

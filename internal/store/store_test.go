package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dushixiang/apiflow/internal/models"
)

func TestConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	st := NewMonitoringStore()

	const workflows = 10
	const tasks = 10

	var wg sync.WaitGroup
	for w := 0; w < workflows; w++ {
		for task := 0; task < tasks; task++ {
			wg.Add(1)
			go func(w, task int) {
				defer wg.Done()
				st.UpsertTaskData(
					fmt.Sprintf("wf-%d", w),
					fmt.Sprintf("task-%d", task),
					models.MonitoringData{
						ApiURL: fmt.Sprintf("http://example.com/%d/%d", w, task),
						Status: "OK",
						Method: models.MethodGet,
					})
			}(w, task)
		}
	}
	wg.Wait()

	snapshot := st.TaskSnapshot()
	if len(snapshot) != workflows {
		t.Fatalf("应有 %d 个工作流条目，实际 %d", workflows, len(snapshot))
	}
	for w := 0; w < workflows; w++ {
		workflowData := snapshot[fmt.Sprintf("wf-%d", w)]
		if len(workflowData) != tasks {
			t.Errorf("wf-%d 应有 %d 条记录，实际 %d", w, tasks, len(workflowData))
		}
		for task := 0; task < tasks; task++ {
			data, ok := workflowData[fmt.Sprintf("task-%d", task)]
			if !ok {
				t.Errorf("wf-%d/task-%d 记录丢失", w, task)
				continue
			}
			expected := fmt.Sprintf("http://example.com/%d/%d", w, task)
			if data.ApiURL != expected {
				t.Errorf("记录写串了键: 期望 %s，实际 %s", expected, data.ApiURL)
			}
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := NewMonitoringStore()
	st.UpsertTaskData("wf", "task", models.MonitoringData{Status: "OK", Method: models.MethodGet})

	snapshot := st.TaskSnapshot()
	snapshot["wf"]["task"] = models.MonitoringData{Status: "ERROR", Method: models.MethodGet}
	snapshot["other"] = map[string]models.MonitoringData{}

	fresh := st.TaskSnapshot()
	if fresh["wf"]["task"].Status != "OK" {
		t.Error("修改快照不应影响存储内的数据")
	}
	if _, ok := fresh["other"]; ok {
		t.Error("向快照添加条目不应影响存储")
	}
}

func TestLoadTestNamespaceIsIndependent(t *testing.T) {
	st := NewMonitoringStore()
	st.UpsertTaskData("wf", "task", models.MonitoringData{Status: "OK", Method: models.MethodGet})

	if len(st.LoadTestSnapshot()) != 0 {
		t.Error("任务数据不应出现在压测命名空间里")
	}

	st.UpsertLoadTestData("wf", "task", models.LoadTestMonitoringData{TotalRequests: 7, Method: models.MethodGet})

	if st.LoadTestSnapshot()["wf"]["task"].TotalRequests != 7 {
		t.Error("压测记录应可按 (workflow, task) 读回")
	}
	if st.TaskSnapshot()["wf"]["task"].Status != "OK" {
		t.Error("压测写入不应影响任务命名空间")
	}
}

func TestClaimSession(t *testing.T) {
	st := NewMonitoringStore()

	const goroutines = 50
	var claimed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st.ClaimSession() {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	if claimed.Load() != 1 {
		t.Fatalf("并发申领会话应只有 1 个成功，实际 %d", claimed.Load())
	}
	if !st.SessionActive() {
		t.Error("申领成功后会话应处于运行状态")
	}

	st.EndSession()
	if st.SessionActive() {
		t.Error("清除标记后会话不应处于运行状态")
	}
	if !st.ClaimSession() {
		t.Error("会话结束后应能再次申领")
	}
}

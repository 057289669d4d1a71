package store

import (
	"sync"

	"github.com/dushixiang/apiflow/internal/models"
)

// MonitoringStore 监控结果存储
//
// 任务数据、压测数据和会话状态分别由独立的锁保护，
// 任何调用方在同一时刻最多只持有其中一把锁，避免嵌套加锁导致死锁。
// 每条 (workflow, task) 记录只会被整体替换，读者不会看到写了一半的数据。
type MonitoringStore struct {
	taskMu   sync.RWMutex
	taskData map[string]map[string]models.MonitoringData

	loadMu   sync.RWMutex
	loadData map[string]map[string]models.LoadTestMonitoringData

	sessionMu     sync.Mutex
	sessionActive bool
}

// NewMonitoringStore 创建监控结果存储
func NewMonitoringStore() *MonitoringStore {
	return &MonitoringStore{
		taskData: make(map[string]map[string]models.MonitoringData),
		loadData: make(map[string]map[string]models.LoadTestMonitoringData),
	}
}

// UpsertTaskData 写入或覆盖一条任务监控记录
func (s *MonitoringStore) UpsertTaskData(workflowName, taskName string, data models.MonitoringData) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	workflowData, ok := s.taskData[workflowName]
	if !ok {
		workflowData = make(map[string]models.MonitoringData)
		s.taskData[workflowName] = workflowData
	}
	workflowData[taskName] = data
}

// UpsertLoadTestData 写入或覆盖一条压测结果记录
func (s *MonitoringStore) UpsertLoadTestData(workflowName, taskName string, data models.LoadTestMonitoringData) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	workflowData, ok := s.loadData[workflowName]
	if !ok {
		workflowData = make(map[string]models.LoadTestMonitoringData)
		s.loadData[workflowName] = workflowData
	}
	workflowData[taskName] = data
}

// TaskSnapshot 返回任务监控数据的深拷贝
func (s *MonitoringStore) TaskSnapshot() map[string]map[string]models.MonitoringData {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	snapshot := make(map[string]map[string]models.MonitoringData, len(s.taskData))
	for workflowName, workflowData := range s.taskData {
		copied := make(map[string]models.MonitoringData, len(workflowData))
		for taskName, data := range workflowData {
			copied[taskName] = data
		}
		snapshot[workflowName] = copied
	}
	return snapshot
}

// LoadTestSnapshot 返回压测数据的深拷贝
func (s *MonitoringStore) LoadTestSnapshot() map[string]map[string]models.LoadTestMonitoringData {
	s.loadMu.RLock()
	defer s.loadMu.RUnlock()

	snapshot := make(map[string]map[string]models.LoadTestMonitoringData, len(s.loadData))
	for workflowName, workflowData := range s.loadData {
		copied := make(map[string]models.LoadTestMonitoringData, len(workflowData))
		for taskName, data := range workflowData {
			copied[taskName] = data
		}
		snapshot[workflowName] = copied
	}
	return snapshot
}

// ClaimSession 原子地申领监控会话，已有会话在运行时返回 false
func (s *MonitoringStore) ClaimSession() bool {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.sessionActive {
		return false
	}
	s.sessionActive = true
	return true
}

// EndSession 清除会话运行标记，由查询接口在读取结果时调用
func (s *MonitoringStore) EndSession() {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	s.sessionActive = false
}

// SessionActive 返回当前是否有监控会话在运行
func (s *MonitoringStore) SessionActive() bool {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.sessionActive
}

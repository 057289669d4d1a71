package service

import "time"

// WorkflowOverview 工作流概览：配置信息加最近一次监控的汇总
type WorkflowOverview struct {
	Name          string `json:"name"`
	ApiCount      int    `json:"api_count"`
	LoadTestCount int    `json:"load_test_count"`
	OkCount       int    `json:"ok_count"`    // 最近一次会话中状态为 OK 的任务数
	ErrorCount    int    `json:"error_count"` // 最近一次会话中状态为 ERROR 的任务数
	Monitored     bool   `json:"monitored"`   // 是否已有监控数据
}

// Overview 汇总全部工作流的概览信息，结果短暂缓存
func (s *MonitorService) Overview() []WorkflowOverview {
	if cached, ok := s.overviewCache.Get(overviewCacheKey); ok {
		return cached
	}

	taskData := s.store.TaskSnapshot()

	workflows := s.Workflows()
	items := make([]WorkflowOverview, 0, len(workflows))
	for _, workflow := range workflows {
		item := WorkflowOverview{
			Name:     workflow.Name,
			ApiCount: len(workflow.Apis),
		}
		for i := range workflow.Apis {
			if workflow.Apis[i].LoadTest {
				item.LoadTestCount++
			}
		}

		if workflowData, ok := taskData[workflow.Name]; ok {
			item.Monitored = len(workflowData) > 0
			for _, data := range workflowData {
				if data.Status == "OK" {
					item.OkCount++
				} else {
					item.ErrorCount++
				}
			}
		}

		items = append(items, item)
	}

	s.overviewCache.Set(overviewCacheKey, items, 10*time.Second)
	return items
}

package monitor

import (
	"context"
	"math"
	"net/http"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/models"
	"github.com/dushixiang/apiflow/internal/store"
)

// Runner 可执行的监控单元，普通任务和压测任务各实现一个
type Runner interface {
	// Execute 执行一次监控，结果写入存储，失败时返回错误
	Execute(ctx context.Context, client *http.Client, workflowName string) error
	// Describe 返回用于日志的描述
	Describe() string
	// TaskOrder 返回执行顺序，未配置时排在最后
	TaskOrder() int
}

// NewRunners 根据工作流配置创建监控单元列表
func NewRunners(workflow *models.Workflow, st *store.MonitoringStore, fs afero.Fs, logger *zap.Logger) []Runner {
	runners := make([]Runner, 0, len(workflow.Apis))

	for i := range workflow.Apis {
		api := &workflow.Apis[i]
		if api.LoadTest && api.LoadTestConfig != nil {
			logger.Info("配置渐进式压测任务", zap.String("name", api.Name))
			runners = append(runners, NewLoadTest(api, st, fs, logger))
		} else {
			logger.Info("配置监控任务", zap.String("name", api.Name))
			runners = append(runners, NewTask(api, st, fs, logger))
		}
	}

	return runners
}

// taskOrder 未配置执行顺序的任务排在最后一组
func taskOrder(api *models.ApiConfig) int {
	if api.TaskOrder == nil {
		return math.MaxInt
	}
	return *api.TaskOrder
}

package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/models"
	"github.com/dushixiang/apiflow/internal/store"
)

// Task 普通监控任务：执行一次请求并记录结果，不做重试
type Task struct {
	api    *models.ApiConfig
	store  *store.MonitoringStore
	fs     afero.Fs
	logger *zap.Logger
}

// NewTask 创建普通监控任务
func NewTask(api *models.ApiConfig, st *store.MonitoringStore, fs afero.Fs, logger *zap.Logger) *Task {
	return &Task{
		api:    api,
		store:  st,
		fs:     fs,
		logger: logger,
	}
}

// Execute 执行一次监控请求
//
// 2xx 记为 OK；其他状态码记为 ERROR 但仍是一次完成的观测；
// 传输层失败记为 ERROR 且没有状态码。除构建请求失败外，
// 每次执行都会向存储写入且仅写入一条记录。
func (t *Task) Execute(ctx context.Context, client *http.Client, workflowName string) error {
	req, err := NewRequest(ctx, t.fs, t.api)
	if err != nil {
		// 请求无法构建，不发送也不记录
		return err
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		errMessage := fmt.Sprintf("无法访问 '%s': %v", t.api.Name, err)
		t.logger.Error("监控任务请求失败",
			zap.String("name", t.api.Name),
			zap.Error(err))
		t.store.UpsertTaskData(workflowName, t.api.Name, models.MonitoringData{
			ApiURL:       t.api.URL,
			Status:       "ERROR",
			ResponseTime: duration.Milliseconds(),
			StatusCode:   nil, // 连接失败没有状态码
			Method:       t.api.Method,
		})
		return fmt.Errorf("%s", errMessage)
	}
	defer resp.Body.Close()

	statusCode := resp.StatusCode
	data := models.MonitoringData{
		ApiURL:       t.api.URL,
		Status:       "OK",
		ResponseTime: duration.Milliseconds(),
		StatusCode:   &statusCode,
		Method:       t.api.Method,
	}

	if statusCode >= 200 && statusCode < 300 {
		t.store.UpsertTaskData(workflowName, t.api.Name, data)
		t.logger.Info("监控任务执行成功",
			zap.String("name", t.api.Name),
			zap.Int("statusCode", statusCode),
			zap.Duration("duration", duration))
		return nil
	}

	data.Status = "ERROR"
	t.store.UpsertTaskData(workflowName, t.api.Name, data)
	errMessage := fmt.Sprintf("'%s' 返回了 HTTP 状态 %d", t.api.Name, statusCode)
	t.logger.Error("监控任务返回异常状态",
		zap.String("name", t.api.Name),
		zap.Int("statusCode", statusCode))
	return fmt.Errorf("%s", errMessage)
}

// Describe 返回任务描述
func (t *Task) Describe() string {
	return fmt.Sprintf("Task for %s", t.api.Name)
}

// TaskOrder 返回任务执行顺序
func (t *Task) TaskOrder() int {
	return taskOrder(t.api)
}

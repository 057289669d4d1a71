package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-orz/cache"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/config"
	"github.com/dushixiang/apiflow/internal/models"
	"github.com/dushixiang/apiflow/internal/monitor"
	"github.com/dushixiang/apiflow/internal/store"
)

var (
	// ErrMonitoringRunning 已有监控会话在运行
	ErrMonitoringRunning = errors.New("监控会话已在运行中")
	// ErrNoMatchingWorkflows 触发请求没有匹配到任何工作流
	ErrNoMatchingWorkflows = errors.New("未找到匹配的工作流")
)

const overviewCacheKey = "overview"

// MonitorService 监控服务：编排工作流执行并维护监控会话
type MonitorService struct {
	logger   *zap.Logger
	settings *config.Settings
	store    *store.MonitoringStore
	fs       afero.Fs

	mu        sync.RWMutex
	workflows []*models.Workflow

	// 概览缓存：避免每次查询都重新汇总
	overviewCache cache.Cache[string, []WorkflowOverview]
}

// NewMonitorService 创建监控服务
func NewMonitorService(logger *zap.Logger, settings *config.Settings, workflows []*models.Workflow, st *store.MonitoringStore, fs afero.Fs) *MonitorService {
	return &MonitorService{
		logger:        logger,
		settings:      settings,
		store:         st,
		fs:            fs,
		workflows:     workflows,
		overviewCache: cache.New[string, []WorkflowOverview](10 * time.Second),
	}
}

// Store 返回监控结果存储
func (s *MonitorService) Store() *store.MonitoringStore {
	return s.store
}

// Workflows 返回当前工作流列表的快照
func (s *MonitorService) Workflows() []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflows := make([]*models.Workflow, len(s.workflows))
	copy(workflows, s.workflows)
	return workflows
}

// ReplaceWorkflows 替换工作流列表（配置热加载）
func (s *MonitorService) ReplaceWorkflows(workflows []*models.Workflow) {
	s.mu.Lock()
	s.workflows = workflows
	s.mu.Unlock()

	// 清理概览缓存
	s.overviewCache.Delete(overviewCacheKey)

	s.logger.Info("工作流列表已更新", zap.Int("count", len(workflows)))
}

// FilterWorkflows 按名称精确匹配筛选工作流，没有任何匹配时返回错误
func (s *MonitorService) FilterWorkflows(names []string) ([]*models.Workflow, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var filtered []*models.Workflow
	for _, workflow := range s.Workflows() {
		if wanted[workflow.Name] {
			filtered = append(filtered, workflow)
		}
	}

	if len(filtered) == 0 {
		return nil, ErrNoMatchingWorkflows
	}
	return filtered, nil
}

// TriggerAll 触发一次覆盖全部工作流的监控会话
func (s *MonitorService) TriggerAll() error {
	return s.trigger(s.Workflows())
}

// TriggerByNames 触发一次只覆盖指定工作流的监控会话
func (s *MonitorService) TriggerByNames(names []string) error {
	workflows, err := s.FilterWorkflows(names)
	if err != nil {
		return err
	}
	return s.trigger(workflows)
}

// trigger 申领会话并在后台启动监控
//
// 会话标记在后台执行开始之前设置，由查询接口在读取结果时清除。
func (s *MonitorService) trigger(workflows []*models.Workflow) error {
	if !s.store.ClaimSession() {
		return ErrMonitoringRunning
	}

	go s.StartMonitoring(context.Background(), workflows)
	return nil
}

// StartMonitoring 运行一次监控会话，所有工作流并发执行，全部完成后返回
func (s *MonitorService) StartMonitoring(ctx context.Context, workflows []*models.Workflow) {
	sessionID := uuid.NewString()
	logger := s.logger.With(zap.String("sessionId", sessionID))

	logger.Info("监控会话开始", zap.Int("workflows", len(workflows)))
	start := time.Now()

	// 整个会话的全部请求共享一个 HTTP 客户端
	client := monitor.NewHttpClient(monitor.HttpClientConfig{
		TimeoutSeconds: s.settings.HttpTimeoutSeconds,
		ProxyURL:       s.settings.HttpProxyURL,
		DefaultHeaders: s.settings.HttpDefaultHeaders,
	}, logger)

	var wg conc.WaitGroup
	for _, workflow := range workflows {
		workflow := workflow
		wg.Go(func() {
			s.monitorWorkflow(ctx, client, workflow, logger)
		})
	}
	wg.Wait()

	logger.Info("监控会话结束", zap.Duration("duration", time.Since(start)))
}

// monitorWorkflow 执行单个工作流
//
// 按 task_order 分组，组间严格按序执行，组内全部任务并发执行；
// 单个任务失败只记录日志，不影响同组任务和后续分组。
func (s *MonitorService) monitorWorkflow(ctx context.Context, client *http.Client, workflow *models.Workflow, logger *zap.Logger) {
	runners := monitor.NewRunners(workflow, s.store, s.fs, logger)

	grouped := make(map[int][]monitor.Runner)
	for _, runner := range runners {
		order := runner.TaskOrder()
		grouped[order] = append(grouped[order], runner)
	}

	orders := make([]int, 0, len(grouped))
	for order := range grouped {
		orders = append(orders, order)
	}
	sort.Ints(orders)

	for _, order := range orders {
		var wg conc.WaitGroup
		for _, runner := range grouped[order] {
			runner := runner
			wg.Go(func() {
				logger.Info("任务开始", zap.String("task", runner.Describe()))
				if err := runner.Execute(ctx, client, workflow.Name); err != nil {
					logger.Error("任务执行失败",
						zap.String("task", runner.Describe()),
						zap.Error(err))
					return
				}
				logger.Info("任务完成", zap.String("task", runner.Describe()))
			})
		}
		// 等本组全部结束后才进入下一组
		wg.Wait()
	}
}

package scheduler

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/service"
)

// SessionScheduler 按固定间隔自动触发监控会话
//
// 上一次会话还在运行时跳过本次触发，不排队等待。
type SessionScheduler struct {
	cron           *cron.Cron
	monitorService *service.MonitorService
	logger         *zap.Logger
}

// NewSessionScheduler 创建会话调度器
func NewSessionScheduler(monitorService *service.MonitorService, logger *zap.Logger) *SessionScheduler {
	return &SessionScheduler{
		cron:           cron.New(cron.WithSeconds()), // 支持秒级调度
		monitorService: monitorService,
		logger:         logger,
	}
}

// Start 启动调度器
func (s *SessionScheduler) Start(intervalSeconds int) error {
	// 确保间隔合法
	if intervalSeconds <= 0 {
		intervalSeconds = 60 // 默认 60 秒
	}

	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	if _, err := s.cron.AddFunc(spec, s.runSession); err != nil {
		return fmt.Errorf("添加 cron 任务失败: %w", err)
	}

	s.cron.Start()
	s.logger.Info("监控会话调度器已启动", zap.Int("intervalSeconds", intervalSeconds))
	return nil
}

// Stop 停止调度器，等待进行中的调度回调返回
func (s *SessionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("监控会话调度器已停止")
}

// runSession 触发一次监控会话
func (s *SessionScheduler) runSession() {
	err := s.monitorService.TriggerAll()
	if err == nil {
		s.logger.Debug("定时触发监控会话")
		return
	}

	if errors.Is(err, service.ErrMonitoringRunning) {
		s.logger.Debug("上一次监控会话尚未结束，跳过本次触发")
		return
	}
	s.logger.Error("定时触发监控会话失败", zap.Error(err))
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/service"
)

// MonitorHandler 监控查询与触发接口
type MonitorHandler struct {
	logger  *zap.Logger
	service *service.MonitorService
}

// NewMonitorHandler 创建处理器
func NewMonitorHandler(logger *zap.Logger, service *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{
		logger:  logger,
		service: service,
	}
}

// GetTaskResults 查询任务监控结果
// GET /task_results
//
// 返回结果快照后清除会话运行标记，两把锁先后获取，绝不嵌套。
func (h *MonitorHandler) GetTaskResults(c echo.Context) error {
	snapshot := h.service.Store().TaskSnapshot()
	h.service.Store().EndSession()

	return c.JSON(http.StatusOK, snapshot)
}

// GetLoadTestResults 查询压测结果
// GET /load_test_results
func (h *MonitorHandler) GetLoadTestResults(c echo.Context) error {
	snapshot := h.service.Store().LoadTestSnapshot()
	h.service.Store().EndSession()

	return c.JSON(http.StatusOK, snapshot)
}

// TriggerMonitoring 触发覆盖全部工作流的监控会话
// GET /trigger_workflow
func (h *MonitorHandler) TriggerMonitoring(c echo.Context) error {
	if err := h.service.TriggerAll(); err != nil {
		if errors.Is(err, service.ErrMonitoringRunning) {
			return c.JSON(http.StatusOK, map[string]string{
				"message": "监控已在运行中",
			})
		}
		h.logger.Error("触发监控失败", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "触发监控失败",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "监控已启动",
	})
}

// WebhookPayload 按名称触发监控的请求体
type WebhookPayload struct {
	WorkflowNames []string `json:"workflow_names"`
}

// TriggerMonitoringByNames 触发只覆盖指定工作流的监控会话
// POST /trigger_workflow
func (h *MonitorHandler) TriggerMonitoringByNames(c echo.Context) error {
	var payload WebhookPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "请求参数错误",
		})
	}

	if err := h.service.TriggerByNames(payload.WorkflowNames); err != nil {
		if errors.Is(err, service.ErrMonitoringRunning) {
			return c.JSON(http.StatusOK, map[string]string{
				"message": "监控已在运行中",
			})
		}
		if errors.Is(err, service.ErrNoMatchingWorkflows) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "未找到匹配的工作流",
			})
		}
		h.logger.Error("触发监控失败", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "触发监控失败",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "已为指定工作流启动监控",
	})
}

// GetOverview 查询工作流概览
// GET /overview
func (h *MonitorHandler) GetOverview(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Overview())
}

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/handler"
)

// NewServer 创建 HTTP 服务并注册路由
func NewServer(logger *zap.Logger, monitorHandler *handler.MonitorHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/task_results", monitorHandler.GetTaskResults)
	e.GET("/load_test_results", monitorHandler.GetLoadTestResults)
	e.GET("/trigger_workflow", monitorHandler.TriggerMonitoring)
	e.POST("/trigger_workflow", monitorHandler.TriggerMonitoringByNames)
	e.GET("/overview", monitorHandler.GetOverview)

	return e
}

// requestLogger 记录每个请求的方法、路径和状态码
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("请求处理完成",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	})
}

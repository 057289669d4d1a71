package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/config"
	"github.com/dushixiang/apiflow/internal/handler"
	"github.com/dushixiang/apiflow/internal/logger"
	"github.com/dushixiang/apiflow/internal/scheduler"
	"github.com/dushixiang/apiflow/internal/server"
	"github.com/dushixiang/apiflow/internal/service"
	"github.com/dushixiang/apiflow/internal/store"
)

var (
	flagConfig             string
	flagConfigDir          string
	flagListen             string
	flagMonitoringInterval int
	flagLogLevel           string
	flagLogFile            string
	flagHttpTimeout        int
	flagHttpProxyURL       string
	flagDefaultHeaders     []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "apiflow",
		Short:        "API 工作流监控与渐进式压测服务",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "工作流配置文件")
	rootCmd.Flags().StringVar(&flagConfigDir, "config-dir", "", "工作流配置目录（默认 ./config，可用 CONFIG_DIR 覆盖）")
	rootCmd.Flags().StringVar(&flagListen, "listen", "127.0.0.1:8080", "HTTP 服务监听地址")
	rootCmd.Flags().IntVar(&flagMonitoringInterval, "monitoring-interval-seconds", 60, "自动触发监控会话的间隔（秒）")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "日志级别")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "日志文件路径（为空输出到标准输出）")
	rootCmd.Flags().IntVar(&flagHttpTimeout, "http-timeout-seconds", 20, "出站请求超时（秒）")
	rootCmd.Flags().StringVar(&flagHttpProxyURL, "http-proxy-url", "", "出站请求代理地址")
	rootCmd.Flags().StringArrayVar(&flagDefaultHeaders, "http-default-header", nil, "默认请求头，KEY:VALUE 形式，可重复指定")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.NewLogger(&logger.LogConfig{
		Level:      flagLogLevel,
		File:       flagLogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
	defer log.Sync()

	defaultHeaders, err := config.ParseDefaultHeaders(flagDefaultHeaders)
	if err != nil {
		return fmt.Errorf("解析默认请求头失败: %w", err)
	}

	settings := &config.Settings{
		MonitoringIntervalSeconds: flagMonitoringInterval,
		LogLevel:                  flagLogLevel,
		LogFile:                   flagLogFile,
		Listen:                    flagListen,
		HttpTimeoutSeconds:        flagHttpTimeout,
		HttpProxyURL:              flagHttpProxyURL,
		HttpDefaultHeaders:        defaultHeaders,
	}

	fs := afero.NewOsFs()

	workflows, err := config.LoadWorkflows(fs, flagConfig, flagConfigDir, log)
	if err != nil {
		return fmt.Errorf("加载工作流配置失败: %w", err)
	}
	if len(workflows) == 0 {
		return fmt.Errorf("没有找到任何工作流配置")
	}

	monitoringStore := store.NewMonitoringStore()
	monitorService := service.NewMonitorService(log, settings, workflows, monitoringStore, fs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 指定单个配置文件时不启用目录热加载
	if flagConfig == "" {
		configDir := config.ResolveConfigDir(flagConfigDir)
		watcher := config.NewWatcher(configDir, func() {
			reloaded, err := config.LoadWorkflows(fs, "", configDir, log)
			if err != nil {
				log.Error("重新加载工作流配置失败，保留当前配置", zap.Error(err))
				return
			}
			monitorService.ReplaceWorkflows(reloaded)
		}, log)
		if err := watcher.Start(ctx); err != nil {
			log.Warn("启动配置目录监控失败", zap.Error(err))
		}
	}

	sessionScheduler := scheduler.NewSessionScheduler(monitorService, log)
	if err := sessionScheduler.Start(settings.MonitoringIntervalSeconds); err != nil {
		return err
	}
	defer sessionScheduler.Stop()

	e := server.NewServer(log, handler.NewMonitorHandler(log, monitorService))

	go func() {
		log.Info("HTTP 服务启动", zap.String("listen", settings.Listen))
		if err := e.Start(settings.Listen); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP 服务异常退出", zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("收到退出信号，开始关闭")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("关闭 HTTP 服务失败", zap.Error(err))
	}

	return nil
}

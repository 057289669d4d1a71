package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 配置目录监控器，配置文件变化时触发工作流重新加载
type Watcher struct {
	dir      string
	onReload func()
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher 创建配置目录监控器
func NewWatcher(dir string, onReload func(), logger *zap.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		onReload: onReload,
		logger:   logger,
	}
}

// Start 启动监控循环
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监控器失败: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("添加目录监控失败: %w", err)
	}
	w.watcher = watcher

	go w.watchLoop(ctx)

	w.logger.Info("配置目录监控已启动", zap.String("dir", w.dir))
	return nil
}

// watchLoop 监控循环
func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// 只关心 yml 配置文件的增删改
			if filepath.Ext(event.Name) != ".yml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Info("检测到配置文件变化，重新加载工作流",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			w.onReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("配置目录监控错误", zap.Error(err))
		}
	}
}

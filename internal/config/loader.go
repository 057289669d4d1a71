package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-errors/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dushixiang/apiflow/internal/models"
)

var validate = validator.New()

// ResolveConfigDir 确定配置目录：命令行参数优先，其次 CONFIG_DIR 环境变量，最后 ./config
func ResolveConfigDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "./config"
}

// LoadWorkflows 加载工作流配置
//
// 指定 configFile 时只加载该文件，否则加载配置目录下的全部 *.yml 文件，
// 每个文件对应一个工作流。加载过程包含环境变量插值和配置校验，
// 任何一个文件加载失败都会使整体加载失败。
func LoadWorkflows(fs afero.Fs, configFile, configDir string, logger *zap.Logger) ([]*models.Workflow, error) {
	var configPaths []string

	if configFile != "" {
		configPaths = []string{configFile}
	} else {
		dir := ResolveConfigDir(configDir)
		matches, err := afero.Glob(fs, filepath.Join(dir, "*.yml"))
		if err != nil {
			return nil, errors.Errorf("读取配置目录 %s 失败: %v", dir, err)
		}
		sort.Strings(matches)
		configPaths = matches
	}

	workflows := make([]*models.Workflow, 0, len(configPaths))
	for _, configPath := range configPaths {
		workflow, err := loadWorkflowFile(fs, configPath, logger)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// loadWorkflowFile 加载并校验单个工作流配置文件
func loadWorkflowFile(fs afero.Fs, path string, logger *zap.Logger) (*models.Workflow, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("打开配置文件 %s 失败: %v", path, err)
	}

	var workflow models.Workflow
	if err := yaml.Unmarshal(content, &workflow); err != nil {
		return nil, errors.Errorf("解析配置文件 %s 失败: %v", path, err)
	}

	InterpolateWorkflow(&workflow, logger)

	if err := validateWorkflow(&workflow, logger); err != nil {
		return nil, errors.Errorf("配置文件 %s 校验失败: %v", path, err)
	}

	logger.Info("加载工作流配置",
		zap.String("path", path),
		zap.String("workflow", workflow.Name),
		zap.Int("apis", len(workflow.Apis)))

	return &workflow, nil
}

// validateWorkflow 校验工作流配置并补齐压测参数默认值
func validateWorkflow(workflow *models.Workflow, logger *zap.Logger) error {
	if err := validate.Struct(workflow); err != nil {
		return err
	}

	for i := range workflow.Apis {
		api := &workflow.Apis[i]
		if api.LoadTest && api.LoadTestConfig == nil {
			logger.Warn("缺少压测参数配置，使用默认值", zap.String("name", api.Name))
			api.LoadTestConfig = models.DefaultLoadTestConfig()
		}
	}

	return nil
}

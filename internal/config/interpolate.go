package config

import (
	"io"
	"os"

	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/models"
)

// interpolateString 替换字符串中的 ${NAME} 环境变量占位符
//
// 环境变量不存在时保留原始占位符并打印警告，核心逻辑不会再解析该语法。
func interpolateString(input string, logger *zap.Logger) string {
	t, err := fasttemplate.NewTemplate(input, "${", "}")
	if err != nil {
		// 占位符未闭合等情况，按字面值处理
		return input
	}

	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if value, ok := os.LookupEnv(tag); ok {
			return w.Write([]byte(value))
		}
		logger.Warn("环境变量未定义，保留原始占位符", zap.String("name", tag))
		return w.Write([]byte("${" + tag + "}"))
	})
}

// InterpolateWorkflow 对工作流中的 URL、请求体和请求头值做环境变量插值
func InterpolateWorkflow(workflow *models.Workflow, logger *zap.Logger) {
	for i := range workflow.Apis {
		api := &workflow.Apis[i]
		api.URL = interpolateString(api.URL, logger)
		if api.Body != nil {
			interpolated := interpolateString(*api.Body, logger)
			api.Body = &interpolated
		}
		for key, value := range api.Headers {
			api.Headers[key] = interpolateString(value, logger)
		}
	}
}

package config

import (
	"fmt"
	"strings"
)

// Settings 应用全局设置，由命令行参数填充
type Settings struct {
	MonitoringIntervalSeconds int               // 自动触发监控会话的间隔（秒）
	LogLevel                  string            // 日志级别
	LogFile                   string            // 日志文件路径（为空输出到标准输出）
	Listen                    string            // HTTP 服务监听地址
	HttpTimeoutSeconds        int               // 出站请求超时（秒）
	HttpProxyURL              string            // 出站请求代理（可选）
	HttpDefaultHeaders        map[string]string // 附加到每个出站请求的默认请求头
}

// ParseDefaultHeaders 解析命令行传入的 KEY:VALUE 形式的默认请求头
func ParseDefaultHeaders(headers []string) (map[string]string, error) {
	result := make(map[string]string, len(headers))
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("请求头格式无效: %s", header)
		}
		result[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return result, nil
}

package monitor

import (
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HttpClientConfig 共享 HTTP 客户端配置
type HttpClientConfig struct {
	TimeoutSeconds int               // 请求超时（秒）
	ProxyURL       string            // 可选的代理地址
	DefaultHeaders map[string]string // 附加到每个请求的默认请求头
}

// NewHttpClient 创建共享 HTTP 客户端
//
// 所有工作流的全部请求复用同一个客户端，以共享连接池、超时、
// 代理和默认请求头配置。
func NewHttpClient(cfg HttpClientConfig, logger *zap.Logger) *http.Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	// 配置代理（如果指定）
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			logger.Warn("代理地址无效，忽略", zap.String("proxyUrl", cfg.ProxyURL), zap.Error(err))
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	var rt http.RoundTripper = transport
	if len(cfg.DefaultHeaders) > 0 {
		headers := make(map[string]string, len(cfg.DefaultHeaders))
		for key, value := range cfg.DefaultHeaders {
			if !validHeaderName(key) || !validHeaderValue(value) {
				logger.Warn("默认请求头无效，忽略", zap.String("key", key), zap.String("value", value))
				continue
			}
			headers[key] = value
		}
		rt = &defaultHeaderTransport{base: transport, headers: headers}
	}

	return &http.Client{
		Timeout:   time.Duration(timeout) * time.Second,
		Transport: rt,
	}
}

// defaultHeaderTransport 为每个出站请求补充默认请求头
type defaultHeaderTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *defaultHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, value := range t.headers {
		// 请求自身的同名请求头优先
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	return t.base.RoundTrip(req)
}

package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/afero"

	"github.com/dushixiang/apiflow/internal/models"
)

// NewRequest 根据接口配置构建一个待发送的 HTTP 请求
//
// 请求体来源优先级：body_file 高于 body；GET 和 DELETE 不携带请求体
// （DELETE 仍携带请求头）。请求头非法或请求体文件不可读时返回错误，
// 是否发送以及发送结果的判定由调用方负责。
func NewRequest(ctx context.Context, fs afero.Fs, api *models.ApiConfig) (*http.Request, error) {
	for key, value := range api.Headers {
		if !validHeaderName(key) || !validHeaderValue(value) {
			return nil, fmt.Errorf("请求头无效: %s: %s", key, value)
		}
	}

	var body string
	if api.BodyFile != nil && *api.BodyFile != "" {
		content, err := afero.ReadFile(fs, *api.BodyFile)
		if err != nil {
			return nil, fmt.Errorf("读取请求体文件 %s 失败: %w", *api.BodyFile, err)
		}
		body = string(content)
	} else if api.Body != nil {
		body = *api.Body
	}

	var bodyReader io.Reader
	switch api.Method {
	case models.MethodPost, models.MethodPut:
		bodyReader = strings.NewReader(body)
	default:
		// GET/DELETE 不携带请求体
	}

	req, err := http.NewRequestWithContext(ctx, string(api.Method), api.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	for key, value := range api.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// validHeaderName 校验请求头名称是否合法
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isTokenChar := c > 0x20 && c < 0x7f &&
			!strings.ContainsRune("()<>@,;:\\\"/[]?={}", rune(c))
		if !isTokenChar {
			return false
		}
	}
	return true
}

// validHeaderValue 校验请求头值是否合法（禁止控制字符）
func validHeaderValue(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\r' || c == '\n' || (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

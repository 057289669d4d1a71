package monitor

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"

	"github.com/dushixiang/apiflow/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNewRequestWithInlineBody(t *testing.T) {
	api := &models.ApiConfig{
		Name:   "create-user",
		URL:    "http://example.com/users",
		Method: models.MethodPost,
		Body:   strPtr(`{"name":"test"}`),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}

	req, err := NewRequest(context.Background(), afero.NewMemMapFs(), api)
	if err != nil {
		t.Fatalf("构建请求失败: %v", err)
	}

	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"name":"test"}` {
		t.Errorf("请求体不符，实际: %s", body)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("请求头未设置，实际: %s", req.Header.Get("Content-Type"))
	}
}

func TestNewRequestBodyFilePrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/body.json", []byte(`{"from":"file"}`), 0o644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	api := &models.ApiConfig{
		Name:     "upload",
		URL:      "http://example.com/upload",
		Method:   models.MethodPut,
		Body:     strPtr(`{"from":"inline"}`),
		BodyFile: strPtr("/data/body.json"),
	}

	req, err := NewRequest(context.Background(), fs, api)
	if err != nil {
		t.Fatalf("构建请求失败: %v", err)
	}

	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"from":"file"}` {
		t.Errorf("body_file 应优先于 body，实际请求体: %s", body)
	}
}

func TestNewRequestBodyFileMissing(t *testing.T) {
	api := &models.ApiConfig{
		Name:     "upload",
		URL:      "http://example.com/upload",
		Method:   models.MethodPost,
		BodyFile: strPtr("/missing/body.json"),
	}

	if _, err := NewRequest(context.Background(), afero.NewMemMapFs(), api); err == nil {
		t.Fatal("请求体文件不存在时应返回错误")
	}
}

func TestNewRequestGetAndDeleteCarryNoBody(t *testing.T) {
	for _, method := range []models.HttpMethod{models.MethodGet, models.MethodDelete} {
		api := &models.ApiConfig{
			Name:   "check",
			URL:    "http://example.com/items/1",
			Method: method,
			Body:   strPtr("should-be-ignored"),
			Headers: map[string]string{
				"Authorization": "Bearer token",
			},
		}

		req, err := NewRequest(context.Background(), afero.NewMemMapFs(), api)
		if err != nil {
			t.Fatalf("%s 构建请求失败: %v", method, err)
		}

		if req.Body != nil {
			t.Errorf("%s 请求不应携带请求体", method)
		}
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("%s 请求应携带请求头", method)
		}
	}
}

func TestNewRequestInvalidHeader(t *testing.T) {
	t.Run("请求头名称含空格", func(t *testing.T) {
		api := &models.ApiConfig{
			Name:    "bad",
			URL:     "http://example.com",
			Method:  models.MethodGet,
			Headers: map[string]string{"bad header": "value"},
		}
		if _, err := NewRequest(context.Background(), afero.NewMemMapFs(), api); err == nil {
			t.Fatal("非法请求头名称应返回错误")
		}
	})

	t.Run("请求头值含换行", func(t *testing.T) {
		api := &models.ApiConfig{
			Name:    "bad",
			URL:     "http://example.com",
			Method:  models.MethodGet,
			Headers: map[string]string{"X-Token": "bad\nvalue"},
		}
		if _, err := NewRequest(context.Background(), afero.NewMemMapFs(), api); err == nil {
			t.Fatal("非法请求头值应返回错误")
		}
	})
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/config"
	"github.com/dushixiang/apiflow/internal/models"
	"github.com/dushixiang/apiflow/internal/service"
	"github.com/dushixiang/apiflow/internal/store"
)

func newTestHandler(workflows []*models.Workflow) (*MonitorHandler, *store.MonitoringStore) {
	st := store.NewMonitoringStore()
	settings := &config.Settings{HttpTimeoutSeconds: 5}
	svc := service.NewMonitorService(zap.NewNop(), settings, workflows, st, afero.NewMemMapFs())
	return NewMonitorHandler(zap.NewNop(), svc), st
}

func TestGetTaskResultsClearsSessionFlag(t *testing.T) {
	h, st := newTestHandler(nil)

	st.UpsertTaskData("wf", "task", models.MonitoringData{Status: "OK", Method: models.MethodGet})
	if !st.ClaimSession() {
		t.Fatal("申领会话应成功")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/task_results", nil)
	rec := httptest.NewRecorder()

	if err := h.GetTaskResults(e.NewContext(req, rec)); err != nil {
		t.Fatalf("查询任务结果失败: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("状态码应为 200，实际 %d", rec.Code)
	}
	if st.SessionActive() {
		t.Error("读取结果后应清除会话运行标记")
	}

	var body map[string]map[string]models.MonitoringData
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body["wf"]["task"].Status != "OK" {
		t.Errorf("响应应包含监控记录，实际: %s", rec.Body.String())
	}
}

func TestTriggerMonitoringByNamesNoMatch(t *testing.T) {
	h, _ := newTestHandler([]*models.Workflow{{Name: "alpha"}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/trigger_workflow",
		strings.NewReader(`{"workflow_names":["missing"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.TriggerMonitoringByNames(e.NewContext(req, rec)); err != nil {
		t.Fatalf("处理器返回错误: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("无匹配工作流是错误而不是空操作，状态码应为 400，实际 %d", rec.Code)
	}
}

func TestTriggerMonitoringAlreadyRunning(t *testing.T) {
	h, st := newTestHandler([]*models.Workflow{{Name: "alpha"}})

	if !st.ClaimSession() {
		t.Fatal("申领会话应成功")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/trigger_workflow", nil)
	rec := httptest.NewRecorder()

	if err := h.TriggerMonitoring(e.NewContext(req, rec)); err != nil {
		t.Fatalf("处理器返回错误: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("会话运行中的触发应返回 200，实际 %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "监控已在运行中") {
		t.Errorf("应提示监控已在运行中，实际: %s", rec.Body.String())
	}
}

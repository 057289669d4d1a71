package monitor

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dushixiang/apiflow/internal/models"
	"github.com/dushixiang/apiflow/internal/store"
)

// 压测失败后两次尝试之间的固定等待时间
const defaultRetryDelay = 5 * time.Second

// LoadTest 渐进式压测任务
//
// 按固定周期逐步增加并发用户数，直到达到最大负载或时间预算耗尽，
// 然后把全部请求样本聚合成统计指标写入存储。
type LoadTest struct {
	api    *models.ApiConfig
	cfg    models.LoadTestConfig
	store  *store.MonitoringStore
	fs     afero.Fs
	logger *zap.Logger

	tickInterval time.Duration // 压测周期，默认 1 秒
	retryDelay   time.Duration
}

// NewLoadTest 创建压测任务
func NewLoadTest(api *models.ApiConfig, st *store.MonitoringStore, fs afero.Fs, logger *zap.Logger) *LoadTest {
	return &LoadTest{
		api:          api,
		cfg:          *api.LoadTestConfig,
		store:        st,
		fs:           fs,
		logger:       logger,
		tickInterval: time.Second,
		retryDelay:   defaultRetryDelay,
	}
}

// stepOutcome 单个压测用户的请求结果
type stepOutcome struct {
	sample  requestSample
	failure string // 非空表示传输失败、构建失败或 worker 崩溃
}

// Execute 执行压测，整轮失败时按配置的重试次数重试
//
// 重试只针对整轮无法执行的失败，压测流量里的 HTTP 错误
// 会被记录为统计指标，不触发重试。
func (l *LoadTest) Execute(ctx context.Context, client *http.Client, workflowName string) error {
	maxAttempts := 0
	if l.cfg.RetryCount != nil {
		maxAttempts = *l.cfg.RetryCount
	}

	delay := &backoff.Backoff{
		Min:    l.retryDelay,
		Max:    l.retryDelay,
		Factor: 1,
	}

	for attempt := 0; attempt <= maxAttempts; attempt++ {
		err := l.runLoadTest(ctx, client, workflowName)
		if err == nil {
			return nil
		}
		if attempt < maxAttempts {
			l.logger.Warn("压测执行失败，准备重试",
				zap.String("name", l.api.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			time.Sleep(delay.Duration())
			continue
		}
		return fmt.Errorf("压测在 %d 次尝试后失败: %w", attempt+1, err)
	}

	return fmt.Errorf("压测失败: 已达到最大重试次数")
}

// runLoadTest 执行一轮压测
func (l *LoadTest) runLoadTest(ctx context.Context, client *http.Client, workflowName string) error {
	// 请求无法构建时整轮失败，交给重试策略处理
	if _, err := NewRequest(ctx, l.fs, l.api); err != nil {
		return err
	}

	startTime := time.Now()

	maxDurationSecs := 1 // 未配置时保守地只压 1 秒
	if l.cfg.MaxDurationSecs != nil {
		maxDurationSecs = *l.cfg.MaxDurationSecs
	}
	maxDuration := time.Duration(maxDurationSecs) * time.Second

	currentLoad := 1
	if l.cfg.InitialLoad != nil {
		currentLoad = *l.cfg.InitialLoad
	}
	maxLoad := math.MaxInt
	if l.cfg.MaxLoad != nil {
		maxLoad = *l.cfg.MaxLoad
	}
	spawnRate := 1
	if l.cfg.SpawnRate != nil {
		spawnRate = *l.cfg.SpawnRate
	}

	gate := newPermitGate(currentLoad)
	ticker := time.NewTicker(l.tickInterval)
	defer ticker.Stop()

	var allOutcomes []stepOutcome

	for currentLoad < maxLoad && time.Since(startTime) < maxDuration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		newUsers := 0
		if currentLoad < maxLoad {
			newUsers = spawnRate
			if remaining := maxLoad - currentLoad; remaining < newUsers {
				newUsers = remaining
			}
		}
		currentLoad += newUsers

		l.logger.Info("产生新的并发用户",
			zap.String("name", l.api.Name),
			zap.Int("newUsers", newUsers),
			zap.Int("currentLoad", currentLoad))

		// 并发上限随累计负载抬升，同时约束本周期与仍在途的请求
		gate.Raise(currentLoad)

		var mu sync.Mutex
		var wg conc.WaitGroup
		for i := 0; i < newUsers; i++ {
			wg.Go(func() {
				outcome := l.runUser(ctx, client, gate)
				mu.Lock()
				allOutcomes = append(allOutcomes, outcome)
				mu.Unlock()
			})
		}
		wg.Wait()

		if time.Since(startTime) >= maxDuration {
			l.logger.Info("达到最大持续时间，提前结束压测",
				zap.String("name", l.api.Name))
			break
		}
	}

	l.logger.Info("压测完成",
		zap.String("name", l.api.Name),
		zap.Duration("totalDuration", time.Since(startTime)),
		zap.Int("outcomes", len(allOutcomes)))

	// 丢弃 worker 级失败，只对收到 HTTP 响应的请求做统计
	samples := make([]requestSample, 0, len(allOutcomes))
	for _, outcome := range allOutcomes {
		if outcome.failure == "" {
			samples = append(samples, outcome.sample)
		}
	}

	stats := analyzeResults(samples)

	l.store.UpsertLoadTestData(workflowName, l.api.Name, models.LoadTestMonitoringData{
		ApiURL:                 l.api.URL,
		TotalRequests:          len(samples),
		SuccessCount:           stats.SuccessCount,
		FailureCount:           stats.FailureCount,
		MedianResponseTimeMs:   stats.MedianResponseTimeMs,
		AverageResponseTimeMs:  stats.AverageResponseTimeMs,
		MinResponseTimeMs:      stats.MinResponseTimeMs,
		MaxResponseTimeMs:      stats.MaxResponseTimeMs,
		StatusCodeDistribution: stats.StatusCodeDistribution,
		Percentile95thMs:       stats.Percentile95thMs,
		RequestsPerSecond:      stats.RequestsPerSecond,
		AverageBytesPerResp:    stats.AverageBytesPerResp,
		Method:                 l.api.Method,
	})

	return nil
}

// runUser 模拟单个并发用户执行一次请求
//
// worker 内的崩溃会被捕获并转换成失败结果，不会中断整轮压测。
func (l *LoadTest) runUser(ctx context.Context, client *http.Client, gate *permitGate) stepOutcome {
	var outcome stepOutcome

	recovered := panics.Try(func() {
		gate.Acquire()
		defer gate.Release()

		start := time.Now()

		req, err := NewRequest(ctx, l.fs, l.api)
		if err != nil {
			l.logger.Error("构建压测请求失败", zap.String("name", l.api.Name), zap.Error(err))
			outcome = stepOutcome{failure: err.Error()}
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			l.logger.Error("压测请求失败", zap.String("name", l.api.Name), zap.Error(err))
			outcome = stepOutcome{failure: err.Error()}
			return
		}
		defer resp.Body.Close()

		// 读完响应体再计时，响应大小计入统计
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = nil
		}
		duration := time.Since(start)

		outcome = stepOutcome{sample: requestSample{
			StatusCode: resp.StatusCode,
			Duration:   duration,
			Bytes:      len(body),
		}}
	})

	if recovered != nil {
		l.logger.Error("压测 worker 崩溃",
			zap.String("name", l.api.Name),
			zap.Any("panic", recovered.Value))
		return stepOutcome{failure: "worker panicked"}
	}

	return outcome
}

// Describe 返回压测任务描述
func (l *LoadTest) Describe() string {
	return fmt.Sprintf("LoadTest for %s", l.api.Name)
}

// TaskOrder 返回任务执行顺序
func (l *LoadTest) TaskOrder() int {
	return taskOrder(l.api)
}

package models

// HttpMethod HTTP 请求方法
type HttpMethod string

const (
	MethodGet    HttpMethod = "GET"
	MethodPost   HttpMethod = "POST"
	MethodPut    HttpMethod = "PUT"
	MethodDelete HttpMethod = "DELETE"
)

// LoadTestConfig 压测参数配置（所有字段可选，缺省值由配置加载器补齐）
type LoadTestConfig struct {
	InitialLoad     *int `yaml:"initial_load" json:"initial_load,omitempty"`         // 初始并发数
	MaxLoad         *int `yaml:"max_load" json:"max_load,omitempty"`                 // 最大并发数
	SpawnRate       *int `yaml:"spawn_rate" json:"spawn_rate,omitempty"`             // 每个周期新增的并发数
	RetryCount      *int `yaml:"retry_count" json:"retry_count,omitempty"`           // 失败重试次数
	MaxDurationSecs *int `yaml:"max_duration_secs" json:"max_duration_secs,omitempty"` // 压测最长持续时间（秒）
}

// DefaultLoadTestConfig 压测参数的默认值
func DefaultLoadTestConfig() *LoadTestConfig {
	initialLoad := 1
	maxLoad := 10
	spawnRate := 1
	retryCount := 0
	maxDurationSecs := 60
	return &LoadTestConfig{
		InitialLoad:     &initialLoad,
		MaxLoad:         &maxLoad,
		SpawnRate:       &spawnRate,
		RetryCount:      &retryCount,
		MaxDurationSecs: &maxDurationSecs,
	}
}

// ApiConfig 单个被监控接口的配置，加载后只读，供所有并发执行共享
type ApiConfig struct {
	Name                  string            `yaml:"name" json:"name" validate:"required"`
	TaskOrder             *int              `yaml:"task_order" json:"task_order,omitempty"` // 执行顺序，缺省排在最后
	URL                   string            `yaml:"url" json:"url" validate:"required"`
	Headers               map[string]string `yaml:"headers" json:"headers"`
	ExpectedField         string            `yaml:"expected_field" json:"expected_field"`
	ResponseTimeThreshold int64             `yaml:"response_time_threshold" json:"response_time_threshold"` // 响应时间阈值（毫秒）
	Method                HttpMethod        `yaml:"method" json:"method" validate:"required,oneof=GET POST PUT DELETE"`
	Body                  *string           `yaml:"body" json:"body,omitempty"`
	BodyFile              *string           `yaml:"body_file" json:"body_file,omitempty"` // 请求体文件路径，优先于 body
	LoadTest              bool              `yaml:"load_test" json:"load_test"`
	LoadTestConfig        *LoadTestConfig   `yaml:"load_test_config" json:"load_test_config,omitempty"`
}

// Workflow 一个工作流：按顺序编排的一组被监控接口
type Workflow struct {
	Name string      `yaml:"name" json:"name" validate:"required"`
	Apis []ApiConfig `yaml:"apis" json:"apis" validate:"required,dive"`
}

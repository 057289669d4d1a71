package models

// MonitoringData 单次任务监控的结果
type MonitoringData struct {
	ApiURL       string     `json:"api_url"`
	Status       string     `json:"status"`        // OK 或 ERROR
	ResponseTime int64      `json:"response_time"` // 响应时间（毫秒）
	StatusCode   *int       `json:"status_code"`   // 传输层失败时为空
	Method       HttpMethod `json:"method"`
}

// LoadTestMonitoringData 一次压测的聚合结果
type LoadTestMonitoringData struct {
	ApiURL                 string      `json:"api_url"`
	TotalRequests          int         `json:"total_requests"` // 仅统计收到 HTTP 响应的请求
	SuccessCount           int         `json:"success_count"`
	FailureCount           int         `json:"failure_count"`
	MedianResponseTimeMs   int64       `json:"median_response_time_ms"`
	AverageResponseTimeMs  int64       `json:"average_response_time_ms"`
	MinResponseTimeMs      int64       `json:"min_response_time_ms"`
	MaxResponseTimeMs      int64       `json:"max_response_time_ms"`
	StatusCodeDistribution map[int]int `json:"status_code_distribution"`
	Percentile95thMs       int64       `json:"percentile_95th_response_time_ms"`
	RequestsPerSecond      float64     `json:"requests_per_second"`
	AverageBytesPerResp    int64       `json:"average_bytes_per_response"`
	Method                 HttpMethod  `json:"method"`
}

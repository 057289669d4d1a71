package monitor

import (
	"math"
	"sort"
	"time"
)

// requestSample 一次收到 HTTP 响应的请求样本
type requestSample struct {
	StatusCode int
	Duration   time.Duration
	Bytes      int
}

// loadTestStats 压测样本的聚合统计
type loadTestStats struct {
	SuccessCount           int
	FailureCount           int
	MedianResponseTimeMs   int64
	AverageResponseTimeMs  int64
	MinResponseTimeMs      int64
	MaxResponseTimeMs      int64
	StatusCodeDistribution map[int]int
	Percentile95thMs       int64
	RequestsPerSecond      float64
	AverageBytesPerResp    int64
}

// analyzeResults 聚合压测样本，计算响应时间分位数、吞吐量等统计指标
//
// 吞吐量按累计响应时间（而非压测墙钟时长）折算，
// 这是对外接口既定的口径，保持不变。
func analyzeResults(results []requestSample) loadTestStats {
	stats := loadTestStats{
		StatusCodeDistribution: make(map[int]int),
	}
	if len(results) == 0 {
		return stats
	}

	var totalDurationMs int64
	var totalBytes int64
	durationsMs := make([]int64, 0, len(results))
	stats.MinResponseTimeMs = math.MaxInt64

	for _, sample := range results {
		if sample.StatusCode >= 200 && sample.StatusCode < 300 {
			stats.SuccessCount++
		} else {
			stats.FailureCount++
		}

		durationMs := sample.Duration.Milliseconds()
		durationsMs = append(durationsMs, durationMs)
		totalDurationMs += durationMs
		totalBytes += int64(sample.Bytes)
		if durationMs < stats.MinResponseTimeMs {
			stats.MinResponseTimeMs = durationMs
		}
		if durationMs > stats.MaxResponseTimeMs {
			stats.MaxResponseTimeMs = durationMs
		}

		stats.StatusCodeDistribution[sample.StatusCode]++
	}

	count := int64(len(results))
	stats.AverageResponseTimeMs = totalDurationMs / count
	stats.AverageBytesPerResp = totalBytes / count

	sort.Slice(durationsMs, func(i, j int) bool { return durationsMs[i] < durationsMs[j] })

	// 95 分位：index = ceil(0.95*n)-1，并收敛到 [0, n-1]
	p95Index := int(math.Ceil(0.95*float64(len(durationsMs)))) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	if p95Index > len(durationsMs)-1 {
		p95Index = len(durationsMs) - 1
	}
	stats.Percentile95thMs = durationsMs[p95Index]

	// 中位数：偶数个取中间两数的均值，奇数个取正中间
	mid := len(durationsMs) / 2
	if len(durationsMs)%2 == 0 {
		stats.MedianResponseTimeMs = (durationsMs[mid-1] + durationsMs[mid]) / 2
	} else {
		stats.MedianResponseTimeMs = durationsMs[mid]
	}

	totalDurationSecs := float64(totalDurationMs) / 1000.0
	if totalDurationSecs > 0 {
		stats.RequestsPerSecond = float64(count) / totalDurationSecs
	}

	return stats
}

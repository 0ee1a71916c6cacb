package game

import (
	"sync"
	"time"
)

// PerformanceMonitor отслеживает время выполнения каждой фазы шага
type PerformanceMonitor struct {
	phaseMetrics map[string]*PhaseMetrics
	mutex        sync.RWMutex

	metricsWindow    int           // Количество последних шагов для усреднения
	warningThreshold time.Duration // Порог медленной фазы
}

// PhaseMetrics метрики одной фазы
type PhaseMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	SlowExecutions    uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewPerformanceMonitor создает монитор
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &PerformanceMonitor{
		phaseMetrics:     make(map[string]*PhaseMetrics),
		metricsWindow:    windowSize,
		warningThreshold: warningThreshold,
	}
}

func (pm *PerformanceMonitor) initPhaseMetrics(name string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.phaseMetrics[name] = &PhaseMetrics{
		Name:        name,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(name string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.phaseMetrics[name]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++
	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}
	if pm.warningThreshold > 0 && executionTime > pm.warningThreshold {
		metrics.SlowExecutions++
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow
	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(name string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.phaseMetrics[name]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *PhaseMetrics) {
	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}
	if limit == 0 {
		return
	}

	var total time.Duration
	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}
	metrics.AverageTime = total / time.Duration(limit)
}

// GetPhaseStats возвращает метрики всех фаз
func (pm *PerformanceMonitor) GetPhaseStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	stats := make(map[string]interface{}, len(pm.phaseMetrics))
	for name, metrics := range pm.phaseMetrics {
		stats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime,
			"average_time":        metrics.AverageTime,
			"max_time":            metrics.MaxTime,
			"total_executions":    metrics.TotalExecutions,
			"slow_executions":     metrics.SlowExecutions,
			"errors":              metrics.Errors,
		}
	}
	return stats
}

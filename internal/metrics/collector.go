package metrics

import "time"

// RecordTaskStart marks taskID as having begun execution under operation.
// The pairing is consumed by RecordTaskComplete to compute duration.
func (c *Collector) RecordTaskStart(taskID, operation string) {
	c.reg.ActiveTasks.Inc()

	c.mu.Lock()
	c.taskStarts[taskID] = taskStart{operation: operation, start: time.Now()}
	c.mu.Unlock()
}

// RecordTaskComplete records the outcome of taskID, observing its duration
// against the start time recorded by RecordTaskStart (if any).
func (c *Collector) RecordTaskComplete(taskID string, success bool) {
	c.mu.Lock()
	start, ok := c.taskStarts[taskID]
	if ok {
		delete(c.taskStarts, taskID)
	}
	c.mu.Unlock()

	c.reg.ActiveTasks.Dec()

	status := "success"
	if !success {
		status = "failure"
	}

	operation := "unknown"
	if ok {
		operation = start.operation
		c.reg.TaskDuration.WithLabelValues(operation).Observe(time.Since(start.start).Seconds())
	}
	c.reg.TasksTotal.WithLabelValues(operation, status).Inc()
}

// RecordGitOperation increments the Git operation counter for operation.
func (c *Collector) RecordGitOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.reg.GitOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordClone observes a clone's duration, labeled by repository type
// (e.g. "bare", "worktree").
func (c *Collector) RecordClone(repositoryType string, duration time.Duration) {
	c.reg.CloneDuration.WithLabelValues(repositoryType).Observe(duration.Seconds())
}

// UpdateQueueSize publishes the current queue depth.
func (c *Collector) UpdateQueueSize(size int) {
	c.reg.QueuedTasks.Set(float64(size))
}

// UpdateWorkspaceMetrics publishes workspace count, total disk usage, and
// the configured size limit.
func (c *Collector) UpdateWorkspaceMetrics(count int, diskUsageBytes, sizeLimitBytes int64) {
	c.reg.WorkspaceCount.Set(float64(count))
	c.reg.WorkspaceDiskUsage.Set(float64(diskUsageBytes))
	c.reg.WorkspaceSizeLimit.Set(float64(sizeLimitBytes))
}

// UpdateWorkerCount publishes the current active worker count.
func (c *Collector) UpdateWorkerCount(count int) {
	c.reg.WorkerCount.Set(float64(count))
}

// UpdateResourceUsage publishes process memory and CPU usage.
func (c *Collector) UpdateResourceUsage(memoryBytes int64, cpuPercent float64) {
	c.reg.MemoryUsage.Set(float64(memoryBytes))
	c.reg.CPUUsage.Set(cpuPercent)
}

// RecordCacheHit increments the hit counter for the named cache.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.reg.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments the miss counter for the named cache.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.reg.CacheMisses.WithLabelValues(cacheType).Inc()
}

// UpdateCacheSize publishes the current size of the named cache.
func (c *Collector) UpdateCacheSize(cacheType string, sizeBytes int64) {
	c.reg.CacheSize.WithLabelValues(cacheType).Set(float64(sizeBytes))
}

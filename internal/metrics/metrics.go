// Package metrics provides the Prometheus instrumentation surface for task
// execution, workspace management, and Git operations, plus a small
// TTL-bounded Cache wired through the same hit/miss counters.
//
// Import Path: kv-shepherd.io/shepherd/internal/metrics
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry owns every metric this service exports; a Collector built over
// it updates them. Construct one per process via NewRegistry and register it
// with a prometheus.Registerer at startup.
type Registry struct {
	TasksTotal    *prometheus.CounterVec
	TaskDuration  *prometheus.HistogramVec
	ActiveTasks   prometheus.Gauge
	QueuedTasks   prometheus.Gauge

	WorkspaceCount     prometheus.Gauge
	WorkspaceDiskUsage prometheus.Gauge
	WorkspaceSizeLimit prometheus.Gauge

	GitOperationsTotal *prometheus.CounterVec
	CloneDuration      *prometheus.HistogramVec

	WorkerCount  prometheus.Gauge
	MemoryUsage  prometheus.Gauge
	CPUUsage     prometheus.Gauge

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheSize   *prometheus.GaugeVec

	ServerInfo *prometheus.GaugeVec
}

// NewRegistry builds every metric with the names, labels, and bucket sets
// the Git operations core has always exported, and registers them all with
// reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		TasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_git_tasks_total",
			Help: "Total number of tasks processed",
		}, []string{"operation", "status"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_git_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"operation"}),
		ActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_active_tasks",
			Help: "Number of tasks currently running",
		}),
		QueuedTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_queued_tasks",
			Help: "Number of tasks waiting in queue",
		}),
		WorkspaceCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_workspace_count",
			Help: "Number of active workspaces",
		}),
		WorkspaceDiskUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_workspace_disk_usage_bytes",
			Help: "Total disk usage by workspaces",
		}),
		WorkspaceSizeLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_workspace_size_limit_bytes",
			Help: "Maximum workspace size in bytes",
		}),
		GitOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_git_git_operations_total",
			Help: "Total number of Git operations",
		}, []string{"operation", "status"}),
		CloneDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_git_clone_duration_seconds",
			Help:    "Repository clone duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"repository_type"}),
		WorkerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_worker_count",
			Help: "Number of active workers",
		}),
		MemoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		}),
		CPUUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_git_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_git_cache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"cache_type"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_git_cache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"cache_type"}),
		CacheSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mcp_git_cache_size_bytes",
			Help: "Current cache size in bytes",
		}, []string{"cache_type"}),
		ServerInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mcp_git_server_info",
			Help: "Information about the mcp-git server",
		}, []string{"version", "go_version"}),
	}

	if reg != nil {
		reg.MustRegister(
			r.TasksTotal, r.TaskDuration, r.ActiveTasks, r.QueuedTasks,
			r.WorkspaceCount, r.WorkspaceDiskUsage, r.WorkspaceSizeLimit,
			r.GitOperationsTotal, r.CloneDuration,
			r.WorkerCount, r.MemoryUsage, r.CPUUsage,
			r.CacheHits, r.CacheMisses, r.CacheSize,
			r.ServerInfo,
		)
	}

	return r
}

// SetServerInfo publishes a static info metric.
func (r *Registry) SetServerInfo(version, goVersion string) {
	r.ServerInfo.WithLabelValues(version, goVersion).Set(1)
}

// Collector wraps a Registry with stateful task-timing bookkeeping, the
// way the original MetricsCollector tracked task start times by task ID.
type Collector struct {
	reg *Registry

	mu         sync.Mutex
	taskStarts map[string]taskStart
}

type taskStart struct {
	operation string
	start     time.Time
}

// NewCollector wraps reg with the stateful helpers task execution and
// workspace bookkeeping need.
func NewCollector(reg *Registry) *Collector {
	return &Collector{
		reg:        reg,
		taskStarts: make(map[string]taskStart),
	}
}

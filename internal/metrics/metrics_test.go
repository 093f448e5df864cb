package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_golang/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	var total float64
	for m := range ch {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		switch {
		case out.Counter != nil:
			total += out.Counter.GetValue()
		case out.Gauge != nil:
			total += out.Gauge.GetValue()
		}
	}
	return total
}

func TestNewRegistry_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}

	r.SetServerInfo("test", "go1.25")
	if v := counterValue(t, r.ServerInfo); v != 1 {
		t.Errorf("ServerInfo value = %v, want 1", v)
	}
}

func TestCollector_RecordTaskStartAndComplete(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewCollector(reg)

	c.RecordTaskStart("task-1", "clone")
	c.RecordTaskComplete("task-1", true)

	if got := counterValue(t, reg.TasksTotal); got != 1 {
		t.Errorf("TasksTotal = %v, want 1", got)
	}
	if got := counterValue(t, reg.ActiveTasks); got != 0 {
		t.Errorf("ActiveTasks = %v, want 0", got)
	}
}

func TestCollector_RecordTaskComplete_UnknownTaskID(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewCollector(reg)

	c.RecordTaskComplete("never-started", false)

	if got := counterValue(t, reg.TasksTotal); got != 1 {
		t.Errorf("TasksTotal = %v, want 1", got)
	}
}

func TestCollector_RecordGitOperation(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewCollector(reg)

	c.RecordGitOperation("push", true)
	c.RecordGitOperation("push", false)

	if got := counterValue(t, reg.GitOperationsTotal); got != 2 {
		t.Errorf("GitOperationsTotal = %v, want 2", got)
	}
}

func TestCollector_UpdateWorkspaceMetrics(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewCollector(reg)

	c.UpdateWorkspaceMetrics(3, 1024, 4096)

	if got := counterValue(t, reg.WorkspaceCount); got != 3 {
		t.Errorf("WorkspaceCount = %v, want 3", got)
	}
	if got := counterValue(t, reg.WorkspaceDiskUsage); got != 1024 {
		t.Errorf("WorkspaceDiskUsage = %v, want 1024", got)
	}
}

func TestCollector_CacheHitMiss(t *testing.T) {
	reg := NewRegistry(nil)
	c := NewCollector(reg)

	c.RecordCacheHit("repo_info")
	c.RecordCacheHit("repo_info")
	c.RecordCacheMiss("repo_info")

	if got := counterValue(t, reg.CacheHits); got != 2 {
		t.Errorf("CacheHits = %v, want 2", got)
	}
	if got := counterValue(t, reg.CacheMisses); got != 1 {
		t.Errorf("CacheMisses = %v, want 1", got)
	}
}

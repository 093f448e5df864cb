// Package dispatch implements the tool dispatcher: a single registry
// mapping externally visible operation names to handlers, wrapping every
// call with argument sanitization, audit logging, metrics, and tracing.
//
// Import Path: kv-shepherd.io/shepherd/internal/dispatch
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kv-shepherd.io/shepherd/internal/audit"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/gitops"
	"kv-shepherd.io/shepherd/internal/metrics"
	"kv-shepherd.io/shepherd/internal/sanitize"
)

// Operation is one entry of the tool registry: a handler receiving
// already-sanitized arguments, plus params["workspace_id"] when the call
// names a workspace.
type Operation func(ctx context.Context, params map[string]any) (any, error)

// ArgKind says which sanitizer a named argument must flow through before
// an Operation ever sees it, per the argument validation rules in the
// operation taxonomy.
type ArgKind int

const (
	ArgString ArgKind = iota
	ArgURL
	ArgBranchOrName
	ArgPath
	ArgMessage
)

// Spec describes one registered operation: its handler and the
// sanitizer each named argument must pass through first.
type Spec struct {
	Operation Operation
	Args      map[string]ArgKind
}

// Dispatcher is the single entry point external callers use to invoke a
// Git operation by name.
type Dispatcher struct {
	log         *zap.Logger
	auditLog    *audit.Logger
	collector   *metrics.Collector
	tracer      gitops.Tracer
	workspaceRoot string

	registry map[string]Spec
}

// New constructs a Dispatcher with an empty registry. Register entries
// with Register before calling Dispatch.
func New(log *zap.Logger, auditLog *audit.Logger, collector *metrics.Collector, tracer gitops.Tracer, workspaceRoot string) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if tracer == nil {
		tracer = gitops.NewNoopTracer()
	}
	return &Dispatcher{
		log:           log,
		auditLog:      auditLog,
		collector:     collector,
		tracer:        tracer,
		workspaceRoot: workspaceRoot,
		registry:      make(map[string]Spec),
	}
}

// Register adds name to the dispatch table.
func (d *Dispatcher) Register(name string, spec Spec) {
	d.registry[name] = spec
}

// Dispatch sanitizes params per the registered Spec, then invokes the
// named operation, recording metrics, an audit event, and a trace span
// around the call. Unknown operation names return InvalidArgument.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, userID, workspaceID string, params map[string]any) (any, error) {
	spec, ok := d.registry[name]
	if !ok {
		return nil, apperrors.InvalidArgument(apperrors.CodeUnknownOp, "unknown operation: "+name)
	}

	sanitized, err := d.sanitizeParams(spec.Args, params)
	if err != nil {
		return nil, err
	}
	if workspaceID != "" {
		sanitized["workspace_id"] = workspaceID
	}

	ctx, span := d.tracer.StartSpan(ctx, name, map[string]any{"workspace_id": workspaceID})

	if d.collector != nil {
		d.collector.RecordTaskStart(name, name)
	}
	start := time.Now()

	result, opErr := spec.Operation(ctx, sanitized)

	if d.collector != nil {
		d.collector.RecordTaskComplete(name, opErr == nil)
		d.collector.RecordGitOperation(name, opErr == nil)
	}

	code, message := 0, "ok"
	if opErr != nil {
		code = 1
		message = opErr.Error()
	}
	d.tracer.FinishSpan(span, code, message)

	if d.auditLog != nil {
		errMessage := ""
		if opErr != nil {
			errMessage = opErr.Error()
		}
		d.auditLog.LogGitOperation(name, "", userID, workspaceID, opErr == nil, errMessage, map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	if opErr != nil {
		return nil, opErr
	}
	return result, nil
}

func (d *Dispatcher) sanitizeParams(kinds map[string]ArgKind, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	for name, kind := range kinds {
		raw, ok := out[name]
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}

		switch kind {
		case ArgURL:
			clean, err := sanitize.SanitizeRemoteURL(str)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, apperrors.CodeUnsafeURL, "invalid url argument: "+name)
			}
			out[name] = clean
		case ArgBranchOrName:
			clean, err := sanitize.SanitizeBranchName(str)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, apperrors.CodeReservedBranch, "invalid branch/name argument: "+name)
			}
			out[name] = clean
		case ArgPath:
			clean, err := sanitize.SanitizePath(str, d.workspaceRoot)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, apperrors.CodeUnsafePath, "invalid path argument: "+name)
			}
			out[name] = clean
		case ArgMessage:
			out[name] = sanitize.SanitizeCommitMessage(str)
		case ArgString:
			out[name] = sanitize.SanitizeInput(str)
		}
	}

	return out, nil
}

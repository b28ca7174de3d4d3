package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer is a segment of the New Relic transaction in ctx, scoped to a
// single method call. A nil tracer is valid and records nothing.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named after the struct or package and
// method. It returns nil when ctx carries no transaction.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(fmt.Sprintf("%s %s", structOrPackageName, methodName)),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}
	t.seg.AddAttribute(key, value)
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError notices err on the enclosing transaction.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}
	t.txn.NoticeError(err)
}

func (t *MethodTracer) End() {
	if t == nil {
		return
	}
	t.seg.End()
}

// Trace runs call within a method trace. Errors are noticed on the
// transaction and the call latency is recorded as "<struct>/<method>/Latency".
func Trace(ctx context.Context, structOrPackageName, methodName string, call func(context.Context) error) error {
	tracer := TraceMethodCall(ctx, structOrPackageName, methodName)
	defer tracer.End()

	start := time.Now()
	err := call(ctx)
	RecordDuration(ctx, fmt.Sprintf("%s/%s/Latency", structOrPackageName, methodName), time.Since(start))

	tracer.OnError(err)
	return err
}

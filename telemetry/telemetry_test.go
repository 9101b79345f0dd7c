package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadloop/threadloop/core"
	"github.com/threadloop/threadloop/model"
)

type recordingObserver struct {
	mu    sync.Mutex
	nodes []string
	calls []string
	errs  []error
}

func (r *recordingObserver) NodeStart(ctx context.Context, node string) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, "start:"+node)
	return ctx
}

func (r *recordingObserver) NodeEnd(_ context.Context, node string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, "end:"+node)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) ExternalCall(_ context.Context, kind, name string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, kind+":"+name)
	r.errs = append(r.errs, err)
}

func TestInstrumentModelReportsCalls(t *testing.T) {
	obs := &recordingObserver{}
	mock := model.NewMockModel("mock-model", "test")
	mock.SetDefault("hi")

	m := InstrumentModel(mock, obs)
	_, err := m.Complete(context.Background(), []core.Message{core.UserMessage("hello")})
	require.NoError(t, err)

	_, err = m.CompleteWithTools(context.Background(), []core.Message{core.UserMessage("hello")}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"model:mock-model", "model:mock-model"}, obs.calls)
}

func TestInstrumentModelReportsErrors(t *testing.T) {
	obs := &recordingObserver{}
	mock := model.NewMockModel("mock-model", "test")
	mock.AddError("boom", errors.New("down"))

	m := InstrumentModel(mock, obs)
	_, err := m.Complete(context.Background(), []core.Message{core.UserMessage("boom")})
	require.Error(t, err)
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
}

func TestNoopObserver(t *testing.T) {
	var obs NoopObserver
	ctx := context.Background()
	assert.Equal(t, ctx, obs.NodeStart(ctx, "planning"))
	obs.NodeEnd(ctx, "planning", nil)
	obs.ExternalCall(ctx, "model", "m", time.Millisecond, nil)
}

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_HandlesRegisteredFunction(t *testing.T) {
	d := newTestDispatcher()
	d.Register("run_campaign", func(ctx context.Context, args json.RawMessage) (any, error) {
		var parsed struct {
			CampaignDescription string `json:"campaign_description"`
		}
		require.NoError(t, json.Unmarshal(args, &parsed))
		return map[string]string{"status": "success", "description": parsed.CampaignDescription}, nil
	})

	outputs := d.Handle(context.Background(), []ToolInvocation{
		{ID: "call_1", Name: "run_campaign", Arguments: `{"campaign_description":"exam prep"}`},
	})

	require.Len(t, outputs, 1)
	assert.Equal(t, "call_1", outputs[0].InvocationID)
	assert.JSONEq(t, `{"status":"success","description":"exam prep"}`, outputs[0].Output)
}

func TestDispatcher_UnknownFunctionIsRejected(t *testing.T) {
	d := newTestDispatcher()
	d.Register("run_campaign", func(ctx context.Context, args json.RawMessage) (any, error) {
		return map[string]string{"status": "success"}, nil
	})

	outputs := d.Handle(context.Background(), []ToolInvocation{
		{ID: "call_1", Name: "delete_all_students", Arguments: `{}`},
	})

	require.Len(t, outputs, 1)
	assert.JSONEq(t, `{"error":"unsupported function: delete_all_students"}`, outputs[0].Output)
}

func TestDispatcher_OneOutputPerInvocation(t *testing.T) {
	d := newTestDispatcher()
	d.Register("ok", func(ctx context.Context, args json.RawMessage) (any, error) {
		return "fine", nil
	})
	d.Register("fail", func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("store is down")
	})

	batch := []ToolInvocation{
		{ID: "call_1", Name: "ok"},
		{ID: "call_2", Name: "fail"},
		{ID: "call_3", Name: "nope"},
		{ID: "call_4", Name: "ok"},
	}
	outputs := d.Handle(context.Background(), batch)

	require.Len(t, outputs, len(batch))
	for i, output := range outputs {
		assert.Equal(t, batch[i].ID, output.InvocationID)
	}
	assert.Contains(t, outputs[1].Output, "store is down")
	assert.Contains(t, outputs[2].Output, "unsupported function")
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	d := newTestDispatcher()
	d.Register("panics", func(ctx context.Context, args json.RawMessage) (any, error) {
		panic("nil map write")
	})
	d.Register("ok", func(ctx context.Context, args json.RawMessage) (any, error) {
		return "fine", nil
	})

	outputs := d.Handle(context.Background(), []ToolInvocation{
		{ID: "call_1", Name: "panics"},
		{ID: "call_2", Name: "ok"},
	})

	require.Len(t, outputs, 2)
	assert.Contains(t, outputs[0].Output, "tool handler panic")
	assert.JSONEq(t, `"fine"`, outputs[1].Output)
}

package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopConversionHooks{}
	c.OnImportStart(ctx, 10)
	c.OnImportComplete(ctx, 10, time.Second, nil)
	c.OnRound(ctx, 1, 3, 2)
	c.OnExportStart(ctx)
	c.OnExportComplete(ctx, 10, time.Second, nil)

	s := NoopStoreHooks{}
	s.OnStoreCall(ctx, "CreateEntry", time.Millisecond, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Conversion() should return NoopConversionHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	customConversion := &testConversionHooks{}
	SetConversionHooks(customConversion)
	if Conversion() != customConversion {
		t.Error("SetConversionHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	Reset()
	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Reset() should restore NoopConversionHooks")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testConversionHooks{}
	SetConversionHooks(custom)
	SetConversionHooks(nil)
	if Conversion() != custom {
		t.Error("SetConversionHooks(nil) should be ignored")
	}
	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	hooks := &testConversionHooks{}
	SetConversionHooks(hooks)

	ctx := context.Background()
	Conversion().OnRound(ctx, 1, 2, 0)
	Conversion().OnRound(ctx, 2, 1, 0)

	if hooks.rounds != 2 {
		t.Errorf("rounds = %d, want 2", hooks.rounds)
	}
}

type testConversionHooks struct {
	NoopConversionHooks
	rounds int
}

func (h *testConversionHooks) OnRound(context.Context, int, int, int) { h.rounds++ }

type testStoreHooks struct {
	NoopStoreHooks
}

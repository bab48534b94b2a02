package resilience

import (
	"context"
	"errors"
	"testing"
)

// TestCommand_UsesCachedCircuitProperties verifies a command picks up its
// circuit settings through the registry cache.
func TestCommand_UsesCachedCircuitProperties(t *testing.T) {
	reg, err := NewRegistry(WithEnvLookup(mapLookup(map[string]string{
		"RESILIENCE_CIRCUIT_PAYMENTS_MAX_FAILURES":  "1",
		"RESILIENCE_CIRCUIT_PAYMENTS_RESET_TIMEOUT": "1h",
	})))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	cmd, err := reg.Command(ctx, "payments")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if cmd.Name() != "payments" {
		t.Errorf("Name() = %q", cmd.Name())
	}

	if err := cmd.Execute(ctx, failingOp); !errors.Is(err, errBackend) {
		t.Fatalf("first call error = %v", err)
	}
	// MaxFailures=1 from the environment: the circuit is now open.
	if err := cmd.Execute(ctx, okOp); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second call error = %v, want ErrCircuitOpen", err)
	}
}

// TestCommand_SharedCanonicalProperties verifies commands built under one
// name share the same resolved bundles.
func TestCommand_SharedCanonicalProperties(t *testing.T) {
	reg, err := NewRegistry(WithEnvLookup(mapLookup(map[string]string{
		"RESILIENCE_BULKHEAD_SVC_MAX_CONCURRENT": "7",
	})))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	a, err := reg.Command(ctx, "svc")
	if err != nil {
		t.Fatalf("first Command: %v", err)
	}
	b, err := reg.Command(ctx, "svc")
	if err != nil {
		t.Fatalf("second Command: %v", err)
	}

	if a.Breaker().Properties() != b.Breaker().Properties() {
		t.Error("commands resolved different circuit bundles")
	}
	if a.Bulkhead().Properties() != b.Bulkhead().Properties() {
		t.Error("commands resolved different bulkhead bundles")
	}
	if got := a.Bulkhead().Properties().MaxConcurrent; got != 7 {
		t.Errorf("MaxConcurrent = %d, want 7", got)
	}
	if reg.circuits.Size() != 1 || reg.bulkheads.Size() != 1 {
		t.Errorf("cache sizes circuit=%d bulkhead=%d, want 1 each",
			reg.circuits.Size(), reg.bulkheads.Size())
	}
}

// TestCommand_BulkheadGuards verifies the command rejects work beyond its
// bulkhead capacity.
func TestCommand_BulkheadGuards(t *testing.T) {
	reg, err := NewRegistry(WithEnvLookup(mapLookup(nil)))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	cmd, err := reg.Command(ctx, "svc",
		WithBulkheadOverrides(&BulkheadOverrides{MaxConcurrent: Int(1)}))
	if err != nil {
		t.Fatalf("Command: %v", err)
	}

	if err := cmd.Bulkhead().Acquire(ctx); err != nil {
		t.Fatalf("hold slot: %v", err)
	}
	defer cmd.Bulkhead().Release()

	if err := cmd.Execute(ctx, okOp); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("error = %v, want ErrBulkheadFull", err)
	}
}

// TestCommand_CircuitOptionsForwarded verifies breaker behavior options
// reach the command's breaker.
func TestCommand_CircuitOptionsForwarded(t *testing.T) {
	reg, err := NewRegistry(WithEnvLookup(mapLookup(map[string]string{
		"RESILIENCE_CIRCUIT_SVC_MAX_FAILURES":  "1",
		"RESILIENCE_CIRCUIT_SVC_RESET_TIMEOUT": "1h",
	})))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	var transitions int
	cmd, err := reg.Command(ctx, "svc",
		WithCircuitOptions(WithStateChange(func(State, State) {
			transitions++
		})))
	if err != nil {
		t.Fatalf("Command: %v", err)
	}

	_ = cmd.Execute(ctx, failingOp)
	if transitions != 1 {
		t.Errorf("saw %d transitions, want 1", transitions)
	}
}

// TestCommand_OverridesAreCacheScoped verifies a command's overrides create
// a distinct bundle without disturbing the plain slot.
func TestCommand_OverridesAreCacheScoped(t *testing.T) {
	reg, err := NewRegistry(WithEnvLookup(mapLookup(nil)))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	plain, err := reg.Command(ctx, "svc")
	if err != nil {
		t.Fatalf("plain Command: %v", err)
	}
	tuned, err := reg.Command(ctx, "svc",
		WithCircuitOverrides(&CircuitOverrides{MaxFailures: Int(1)}))
	if err != nil {
		t.Fatalf("tuned Command: %v", err)
	}

	if plain.Breaker().Properties().MaxFailures == tuned.Breaker().Properties().MaxFailures {
		t.Error("override did not take effect")
	}
	if reg.circuits.Size() != 2 {
		t.Errorf("circuit cache size = %d, want 2", reg.circuits.Size())
	}
}

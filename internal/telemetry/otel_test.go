package telemetry

import (
	"context"
	"testing"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "catalogsync-test", "")
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "catalogsync-test", "http://127.0.0.1:4318")
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	// Nothing was recorded, so shutdown has nothing to flush.
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes(t *testing.T) {
	SetMaxBodyBytes(1024)
	if maxBodyBytes != 1024 {
		t.Fatalf("maxBodyBytes=%d", maxBodyBytes)
	}
	SetMaxBodyBytes(-5)
	if maxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("expected default, got %d", maxBodyBytes)
	}
}

func TestSetRenderTimeoutSeconds(t *testing.T) {
	SetRenderTimeoutSeconds(30)
	if renderTimeout != 30*time.Second {
		t.Fatalf("renderTimeout=%v", renderTimeout)
	}
	SetRenderTimeoutSeconds(-1)
	if renderTimeout != 0 {
		t.Fatalf("negative must disable, got %v", renderTimeout)
	}
}

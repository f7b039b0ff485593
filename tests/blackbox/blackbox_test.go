package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "renderd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/renderd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// engineFreeEnv strips every variable that could point the server at a real engine.
func engineFreeEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		switch k {
		case "CHROME_EXECUTABLE_PATH", "PUPPETEER_EXECUTABLE_PATH", "GOOGLE_CHROME_BIN",
			"AWS_LAMBDA_FUNCTION_VERSION", "VERCEL", "NETLIFY",
			"RENDERD_BUNDLED_CHROMIUM", "RENDERD_CONFIG", "RENDERD_ADDR":
			continue
		}
		env = append(env, kv)
	}
	return env
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:18080
}

func startServer(t *testing.T, bin string, port int, extra ...string) *serverProc {
	t.Helper()
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args := append([]string{"serve", "--addr", fmt.Sprintf("127.0.0.1:%d", port)}, extra...)
	cmd := exec.Command(bin, args...)
	cmd.Env = engineFreeEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	sp := &serverProc{cmd: cmd, base: base}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return sp
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func skipIfBundledEngine(t *testing.T) {
	t.Helper()
	for _, p := range []string{"/tmp/chromium", "/tmp/chromium/chromium", "/opt/chromium/chromium", "/opt/chromium/chrome", "/opt/headless-shell/headless-shell"} {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			t.Skipf("bundled engine present at %s", p)
		}
	}
}

// TestBlackbox_MissingEngineFlow runs the server in serverless mode with no
// bundled engine: the API must stay up and report the configuration problem.
func TestBlackbox_MissingEngineFlow(t *testing.T) {
	skipIfBundledEngine(t)
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	missing := filepath.Join(t.TempDir(), "chromium")
	sp := startServer(t, bin, port, "--serverless", "--bundled-chromium", missing, "--launch-max-attempts", "2")

	resp, body := get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz initial %d %s", resp.StatusCode, string(body))
	}

	resp, body = get(t, sp.base+"/sanity")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/sanity %d %s", resp.StatusCode, string(body))
	}
	var sanity struct {
		Strategy string `json:"strategy"`
		Found    bool   `json:"found"`
	}
	if err := json.Unmarshal(body, &sanity); err != nil {
		t.Fatalf("/sanity json: %v body=%s", err, string(body))
	}
	if sanity.Strategy != "bundled_minimal" || sanity.Found {
		t.Fatalf("unexpected sanity: %+v", sanity)
	}

	resp, body = postJSON(t, sp.base+"/render", []byte(`{"html":""}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty html: expected 400, got %d %s", resp.StatusCode, string(body))
	}

	resp, body = postJSON(t, sp.base+"/render", []byte(`{"html":"<p>hi</p>"}`))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d %s", resp.StatusCode, string(body))
	}
	var errResp struct {
		ErrorClass string `json:"errorClass"`
		Code       int    `json:"code"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("error json: %v body=%s", err, string(body))
	}
	if errResp.ErrorClass != "missing_binary" || errResp.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected error body: %s", string(body))
	}

	resp, _ = get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz after missing binary: %d", resp.StatusCode)
	}

	resp, body = get(t, sp.base+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status %d %s", resp.StatusCode, string(body))
	}
	var status struct {
		State          string `json:"state"`
		LastErrorClass string `json:"last_error_class"`
		LaunchesTotal  uint64 `json:"launches_total"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("/status json: %v body=%s", err, string(body))
	}
	if status.State != "error" || status.LastErrorClass != "missing_binary" || status.LaunchesTotal != 0 {
		t.Fatalf("unexpected status: %s", string(body))
	}

	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("renderd_engine_launch_attempts_total")) {
		t.Fatalf("/metrics %d missing launch counter", resp.StatusCode)
	}
}

func TestBlackbox_GracefulShutdown(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no SIGINT on windows")
	}
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	if err := sp.cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("signal: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- sp.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server exited with error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("server did not stop after SIGINT")
	}
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/calorix/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := withConfigDir(t)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("GetTrayAppConfigDir() failed: %v", err)
	}
	if dir != expectedDefault {
		t.Errorf("GetTrayAppConfigDir() = %s, want %s", dir, expectedDefault)
	}

	if err := os.MkdirAll(expectedDefault, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/calorix/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	if err := os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("GetTrayAppConfigDir() failed: %v", err)
	}
	if dir != customDir {
		t.Errorf("GetTrayAppConfigDir() = %s, want %s", dir, customDir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfilePath); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile = %v, want ErrTrayNotRunning", err)
	}

	tests := []struct {
		name       string
		content    string
		executable string
		wantErr    string
	}{
		{"two part format", "8080|12345", "calorix-tray", "malformed"},
		{"garbage", "invalid", "calorix-tray", "malformed"},
		{"empty secret", "8080|12345|", "calorix-tray", "secret"},
		{"empty port", "|12345|s3cret", "calorix-tray", "port"},
		{"port out of range", "99999|12345|s3cret", "calorix-tray", "range"},
		{"bad pid", "8080|abc|s3cret", "calorix-tray", "process ID"},
		{"process gone", "8080|12345|s3cret", "", "not running"},
		{"wrong executable", "8080|12345|s3cret", "other-app", "other-app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.executable)
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("findAndValidateTrayProcess() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	withProcess(t, "calorix-tray")
	if err := os.WriteFile(lockfilePath, []byte("8080|12345|s3cret\n"), 0644); err != nil {
		t.Fatal(err)
	}
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	if err != nil {
		t.Fatalf("findAndValidateTrayProcess() failed: %v", err)
	}
	if port != "8080" || secret != "s3cret" {
		t.Errorf("got (%s, %s), want (8080, s3cret)", port, secret)
	}
}

func trayServer(t *testing.T, got *WebhookPayload) (string, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Calorix-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if got != nil {
			*got = payload
		}
		w.WriteHeader(http.StatusOK)
	}))
	parts := strings.Split(server.URL, ":")
	return parts[len(parts)-1], server.Close
}

func TestSend(t *testing.T) {
	port, closeServer := trayServer(t, nil)
	defer closeServer()

	n := New(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		secret  string
		text    string
		wantErr bool
	}{
		{"success", "test-secret", "hello", false},
		{"missing secret", "", "hello", true},
		{"wrong secret", "wrong-secret", "hello", true},
		{"server error", "test-secret", "fail", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := n.send(ctx, port, tt.secret, WebhookPayload{Text: tt.text})
			if (err != nil) != tt.wantErr {
				t.Errorf("send() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotifyThroughTray(t *testing.T) {
	var got WebhookPayload
	port, closeServer := trayServer(t, &got)
	defer closeServer()

	dir := withConfigDir(t)
	withProcess(t, "calorix-tray")
	trayDir := filepath.Join(dir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%s|4242|test-secret", port)
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0644); err != nil {
		t.Fatal(err)
	}

	var fallback bytes.Buffer
	if err := New(&fallback).Notify(context.Background(), "Lembrete: Beber Água", "Está na hora de beber água."); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if got.Title != "Lembrete: Beber Água" || got.DurationMs != constants.NotificationDurationMs {
		t.Errorf("payload = %+v", got)
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback written while tray is running: %q", fallback.String())
	}
}

func TestNotifyFallback(t *testing.T) {
	withConfigDir(t)

	if err := New(nil).Notify(context.Background(), "t", "b"); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Notify() without fallback = %v, want ErrTrayNotRunning", err)
	}

	var buf bytes.Buffer
	if err := New(&buf).Notify(context.Background(), "Ops! Esqueceu algo?", "Parece que você ainda não registrou seu almoço hoje."); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Ops! Esqueceu algo?") || !strings.Contains(buf.String(), "almoço") {
		t.Errorf("fallback output = %q", buf.String())
	}
}

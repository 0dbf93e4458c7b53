package audit

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	models "github.com/RoGogDBD/activity-tracker/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFileObserver_OnAuditEvent_TableDriven(t *testing.T) {
	tmpDir := t.TempDir()
	tests := []struct {
		name     string
		filePath string
		event    models.AuditEvent
		wantLine string
		wantErr  bool
	}{
		{
			name:     "write ok event",
			filePath: filepath.Join(tmpDir, "audit.log"),
			event:    models.AuditEvent{Timestamp: time.Now().Unix(), Store: "sqlite", Outcome: models.AuditOutcomeOK, Keypresses: 5},
			wantLine: `"store":"sqlite"`,
			wantErr:  false,
		},
		{
			name:     "create nested dir",
			filePath: filepath.Join(tmpDir, "nested", "audit.log"),
			event:    models.AuditEvent{Timestamp: time.Now().Unix(), Store: "postgres", Outcome: models.AuditOutcomeError, Error: "connection reset"},
			wantLine: `"error":"connection reset"`,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			obs := NewFileObserver(tt.filePath)
			err := obs.OnAuditEvent(tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			f, err := os.Open(tt.filePath)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			r := bufio.NewReader(f)
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			require.Contains(t, line, tt.wantLine)
		})
	}
}

func TestHTTPObserver_OnAuditEvent_TableDriven(t *testing.T) {
	tests := []struct {
		name        string
		respondCode int
		wantErr     bool
	}{
		{"ok 200", http.StatusOK, false},
		{"created 201", http.StatusCreated, false},
		{"server error 500", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var received bytes.Buffer
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				received.Write(b)
				w.WriteHeader(tt.respondCode)
			}))
			defer srv.Close()

			obs := NewHTTPObserver(srv.URL)
			e := models.AuditEvent{Timestamp: time.Now().Unix(), Store: "sqlite", Outcome: models.AuditOutcomeOK, MouseClicks: 2}
			err := obs.OnAuditEvent(e)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotZero(t, received.Len())
				require.Contains(t, received.String(), `"outcome":"ok"`)
				require.Contains(t, received.String(), `"store":"sqlite"`)
			}
		})
	}
}

func TestManager_TableDriven(t *testing.T) {
	mgr := NewManager()

	fpath := filepath.Join(t.TempDir(), "am.log")
	fileObs := NewFileObserver(fpath)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	httpObs := NewHTTPObserver(srv.URL)

	tests := []struct {
		name     string
		attach   []models.AuditObserver
		event    models.AuditEvent
		wantFile bool
	}{
		{"single file observer", []models.AuditObserver{fileObs}, models.AuditEvent{Timestamp: time.Now().Unix(), Store: "s1", Outcome: models.AuditOutcomeOK}, true},
		{"file + http", []models.AuditObserver{fileObs, httpObs}, models.AuditEvent{Timestamp: time.Now().Unix(), Store: "s2", Outcome: models.AuditOutcomeOK}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			for _, o := range tt.attach {
				mgr.Attach(o)
			}
			require.True(t, mgr.HasObservers())
			mgr.Notify(tt.event)

			if tt.wantFile {
				f, err := os.Open(fpath)
				require.NoError(t, err)
				defer func() { _ = f.Close() }()
				s := bufio.NewScanner(f)
				found := false
				for s.Scan() {
					if bytes.Contains(s.Bytes(), []byte(tt.event.Store)) {
						found = true
						break
					}
				}
				require.True(t, found, "expected to find event Store in file")
			}

			for _, o := range tt.attach {
				mgr.Detach(o)
			}
			require.False(t, mgr.HasObservers())
		})
	}
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/clarus/internal/backup"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

type fakeBackups struct {
	err        error
	restoredNS store.Namespace
	key        string
}

func (f *fakeBackups) Export(_ context.Context, ns store.Namespace, _ string) (*model.Backup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Backup{Key: string(ns) + "/backup-x.json.enc", SizeBytes: 42, CreatedAt: fixedNow()}, nil
}

func (f *fakeBackups) List(context.Context, store.Namespace) ([]model.Backup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.Backup{{Key: "u1/backup-x.json.enc"}}, nil
}

func (f *fakeBackups) Restore(_ context.Context, ns store.Namespace, key, _ string) error {
	f.restoredNS, f.key = ns, key
	return f.err
}

func (f *fakeBackups) Status(store.Namespace) backup.Status {
	last := fixedNow().Add(-time.Hour)
	return backup.Status{State: backup.StateIdle, LastBackup: &last}
}

func TestBackupErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{backup.ErrDisabled, http.StatusServiceUnavailable},
		{backup.ErrGuest, http.StatusForbidden},
		{backup.ErrNoPassphrase, http.StatusBadRequest},
		{fmt.Errorf("decrypt: %w", backup.ErrDecrypt), http.StatusBadRequest},
		{backup.ErrNotFound, http.StatusNotFound},
		{backup.ErrForeignArchive, http.StatusNotFound},
		{fmt.Errorf("s3 down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewBackupHandler(&fakeBackups{err: tt.err}, nil, testLogger())
			rec := httptest.NewRecorder()
			h.Create(rec, newRequest(t, http.MethodPost, "/api/backups", map[string]string{"passphrase": "pw"}, testUser))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBackupListAndRestore(t *testing.T) {
	fb := &fakeBackups{}
	h := NewBackupHandler(fb, nil, testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(t, http.MethodGet, "/api/backups", nil, testUser))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	resp := decodeBody[backupListResponse](t, rec)
	if len(resp.Backups) != 1 || resp.Status.State != backup.StateIdle {
		t.Errorf("list response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Restore(rec, newRequest(t, http.MethodPost, "/api/backups/restore", map[string]string{"passphrase": "pw"}, testUser))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing key status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Restore(rec, newRequest(t, http.MethodPost, "/api/backups/restore", map[string]string{"key": "u1/backup-x.json.enc", "passphrase": "pw"}, testUser))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("restore status = %d", rec.Code)
	}
	if fb.restoredNS != store.NamespaceFor(testUser) || fb.key != "u1/backup-x.json.enc" {
		t.Errorf("restored %q into %q", fb.key, fb.restoredNS)
	}
}

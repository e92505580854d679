package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

var (
	ErrDisabled       = errors.New("backup: not configured, S3 credentials missing")
	ErrGuest          = errors.New("backup: guest data cannot be backed up")
	ErrNotFound       = errors.New("backup: archive not found")
	ErrNoPassphrase   = errors.New("backup: passphrase required")
	ErrForeignArchive = errors.New("backup: archive belongs to another namespace")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3 S3Config

	// Keep is how many archives are retained per namespace. Zero keeps all.
	Keep int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever a namespace's backup state changes.
type StatusCallback func(store.Namespace, Status)

// Snapshotter reads and replaces the raw content of a namespace.
type Snapshotter interface {
	Snapshot(ns store.Namespace) (map[string]string, error)
	Restore(ns store.Namespace, snap map[string]string) error
}

// archive is the plaintext inside an encrypted backup object.
type archive struct {
	Version   int               `json:"version"`
	Namespace string            `json:"namespace"`
	CreatedAt time.Time         `json:"created_at"`
	Entries   map[string]string `json:"entries"`
}

const archiveVersion = 1

const keyTimeFormat = "2006-01-02T150405.000Z"

// Manager writes encrypted namespace snapshots to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	client   s3Client
	status   map[store.Namespace]Status
	callback StatusCallback

	snaps  Snapshotter
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(cfg Config, snaps Snapshotter, callback StatusCallback, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		snaps:    snaps,
		callback: callback,
		status:   make(map[store.Namespace]Status),
		logger:   logger,
		now:      time.Now,
	}
	if cfg.S3.enabled() {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the backup state of ns.
func (m *Manager) Status(ns store.Namespace) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return Status{State: StateDisabled}
	}
	if s, ok := m.status[ns]; ok {
		return s
	}
	return Status{State: StateIdle}
}

func (m *Manager) setStatus(ns store.Namespace, s Status) {
	m.mu.Lock()
	m.status[ns] = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(ns, s)
	}
}

func (m *Manager) target(ns store.Namespace) (s3Client, string, error) {
	if ns == store.Guest || ns == "" {
		return nil, "", ErrGuest
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, "", ErrDisabled
	}
	return m.client, m.cfg.S3.Bucket, nil
}

func keyPrefix(ns store.Namespace) string {
	return string(ns) + "/"
}

// Export snapshots ns, encrypts it with passphrase and uploads it.
func (m *Manager) Export(ctx context.Context, ns store.Namespace, passphrase string) (*model.Backup, error) {
	client, bucket, err := m.target(ns)
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}

	m.setStatus(ns, Status{State: StateRunning, InProgress: true})
	b, err := m.export(ctx, client, bucket, ns, passphrase)
	if err != nil {
		m.setStatus(ns, Status{State: StateError, Error: err.Error()})
		return nil, err
	}

	last := b.CreatedAt
	m.setStatus(ns, Status{State: StateIdle, LastBackup: &last})

	if m.cfg.Keep > 0 {
		if err := m.prune(ctx, client, bucket, ns, m.cfg.Keep); err != nil {
			m.logger.Warn("prune old backups", "namespace", string(ns), "error", err)
		}
	}
	return b, nil
}

func (m *Manager) export(ctx context.Context, client s3Client, bucket string, ns store.Namespace, passphrase string) (*model.Backup, error) {
	entries, err := m.snaps.Snapshot(ns)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	now := m.now().UTC()
	plaintext, err := json.Marshal(archive{
		Version:   archiveVersion,
		Namespace: string(ns),
		CreatedAt: now,
		Entries:   entries,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	key := fmt.Sprintf("%sbackup-%s.json.enc", keyPrefix(ns), now.Format(keyTimeFormat))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	m.logger.Info("backup uploaded", "namespace", string(ns), "key", key, "bytes", len(sealed))
	return &model.Backup{Key: key, SizeBytes: int64(len(sealed)), CreatedAt: now}, nil
}

// List returns the archives of ns, newest first.
func (m *Manager) List(ctx context.Context, ns store.Namespace) ([]model.Backup, error) {
	client, bucket, err := m.target(ns)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, client, bucket, ns)
}

func (m *Manager) list(ctx context.Context, client s3Client, bucket string, ns store.Namespace) ([]model.Backup, error) {
	backups := []model.Backup{}
	p := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(keyPrefix(ns)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			created, ok := parseKeyTime(ns, key)
			if !ok {
				continue
			}
			backups = append(backups, model.Backup{
				Key:       key,
				SizeBytes: aws.ToInt64(obj.Size),
				CreatedAt: created,
			})
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// parseKeyTime extracts the timestamp from a key written by Export.
func parseKeyTime(ns store.Namespace, key string) (time.Time, bool) {
	name, ok := strings.CutPrefix(key, keyPrefix(ns)+"backup-")
	if !ok {
		return time.Time{}, false
	}
	name, ok = strings.CutSuffix(name, ".json.enc")
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(keyTimeFormat, name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Restore downloads key, decrypts it and replaces the content of ns.
func (m *Manager) Restore(ctx context.Context, ns store.Namespace, key, passphrase string) error {
	client, bucket, err := m.target(ns)
	if err != nil {
		return err
	}
	if passphrase == "" {
		return ErrNoPassphrase
	}
	if _, ok := parseKeyTime(ns, key); !ok {
		return ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return ErrNotFound
		}
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	plaintext, err := Decrypt(sealed, passphrase)
	if err != nil {
		return err
	}

	var a archive
	if err := json.Unmarshal(plaintext, &a); err != nil {
		return fmt.Errorf("decode archive: %w", err)
	}
	if a.Version != archiveVersion {
		return fmt.Errorf("unsupported archive version %d", a.Version)
	}
	if a.Namespace != string(ns) {
		return ErrForeignArchive
	}

	if err := m.snaps.Restore(ns, a.Entries); err != nil {
		return fmt.Errorf("restore namespace: %w", err)
	}
	m.logger.Info("backup restored", "namespace", string(ns), "key", key, "entries", len(a.Entries))
	return nil
}

// prune deletes all but the newest keep archives of ns.
func (m *Manager) prune(ctx context.Context, client s3Client, bucket string, ns store.Namespace, keep int) error {
	backups, err := m.list(ctx, client, bucket, ns)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}
	for _, b := range backups[keep:] {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(b.Key),
		}); err != nil {
			m.logger.Warn("delete s3 object", "key", b.Key, "error", err)
		}
	}
	return nil
}

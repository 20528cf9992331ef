package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/syncprofile"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

// Headers sent to external systems
const (
	SyncSourceHeader  = "X-Sync-Source"
	SyncVersionHeader = "X-Sync-Version"
	SyncSource        = "Progress-Ujian-Mahasiswa"
	SyncVersion       = "1.0.0"

	MsgSyncMissingParams = "Missing required parameters: apiUrl, syncDirection"
)

// SyncRequest selects the external system and which legs to run.
type SyncRequest struct {
	APIURL     string
	APIKey     string
	Direction  models.SyncDirection
	SystemType string
}

// SyncHistory persists sync records.
type SyncHistory interface {
	AppendSyncRecord(rec models.SyncRecord, limit int) error
	SyncHistory() []models.SyncRecord
	LastSyncTime() string
}

// SyncConfig holds the sync timeouts and history length.
type SyncConfig struct {
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
	HistoryLimit   int
}

// SyncService exchanges student data with an external academic system.
type SyncService interface {
	Sync(ctx context.Context, req SyncRequest) models.SyncResult
	History() []models.SyncRecord
	LastSyncTime() string
}

type syncServiceImpl struct {
	students StudentStore
	backups  BackupService
	history  SyncHistory
	client   *http.Client
	config   SyncConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSyncService creates a new sync service. A nil client uses http.DefaultClient;
// per-request timeouts come from config.
func NewSyncService(students StudentStore, backups BackupService, history SyncHistory, client *http.Client, config SyncConfig, logger zerolog.Logger) SyncService {
	if client == nil {
		client = http.DefaultClient
	}
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = 10 * time.Second
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 20
	}
	return &syncServiceImpl{
		students: students,
		backups:  backups,
		history:  history,
		client:   client,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *syncServiceImpl) History() []models.SyncRecord {
	return s.history.SyncHistory()
}

func (s *syncServiceImpl) LastSyncTime() string {
	return s.history.LastSyncTime()
}

// Sync checks the external system's health, then runs the export and/or import
// leg. Every attempt, successful or not, is appended to the history.
func (s *syncServiceImpl) Sync(ctx context.Context, req SyncRequest) models.SyncResult {
	if strings.TrimSpace(req.APIURL) == "" || !req.Direction.Valid() {
		return models.SyncResult{Success: false, Message: MsgSyncMissingParams, SystemType: req.SystemType}
	}

	start := s.now()
	synced, conflicts, err := s.run(ctx, req)
	took := s.now().Sub(start)

	record := models.SyncRecord{
		ID:          NewSyncID(start),
		Timestamp:   models.FormatTimestamp(start),
		Direction:   req.Direction,
		APIURL:      MaskAPIURL(req.APIURL),
		SystemType:  req.SystemType,
		SyncedCount: synced,
		Conflicts:   len(conflicts),
		DurationMs:  took.Milliseconds(),
	}
	if err != nil {
		record.Status = models.SyncStatusFailed
		record.Error = err.Error()
		record.SyncedCount = 0
		record.Conflicts = 0
	} else {
		record.Status = models.SyncStatusSuccess
	}
	if appendErr := s.history.AppendSyncRecord(record, s.config.HistoryLimit); appendErr != nil {
		s.logger.Error().Err(appendErr).Msg("Failed to save sync history")
	}
	metrics.ObserveSync(string(req.Direction), err == nil)

	if err != nil {
		s.logger.Warn().Err(err).Str("api", record.APIURL).Str("direction", string(req.Direction)).Msg("Sync failed")
		return models.SyncResult{Success: false, Message: err.Error(), SystemType: req.SystemType}
	}

	s.logger.Info().
		Str("api", record.APIURL).
		Str("direction", string(req.Direction)).
		Int("synced", synced).
		Int("conflicts", len(conflicts)).
		Msg("Sync completed")
	return models.SyncResult{
		Success:    true,
		Message:    fmt.Sprintf("Data synchronization completed successfully. Synced: %d records", synced),
		Synced:     synced,
		Conflicts:  conflicts,
		SystemType: req.SystemType,
	}
}

func (s *syncServiceImpl) run(ctx context.Context, req SyncRequest) (int, []models.SyncConflict, error) {
	if err := s.checkHealth(ctx, req); err != nil {
		return 0, nil, fmt.Errorf("Connection test failed: %w", err)
	}

	profile := syncprofile.For(req.SystemType)
	synced := 0
	conflicts := []models.SyncConflict{}

	if req.Direction.Exports() {
		n, err := s.exportLeg(ctx, req, profile)
		if err != nil {
			return 0, nil, err
		}
		synced += n
	}

	if req.Direction.Imports() {
		n, legConflicts, err := s.importLeg(ctx, req, profile)
		if err != nil {
			return 0, nil, err
		}
		synced += n
		conflicts = append(conflicts, legConflicts...)
	}

	return synced, conflicts, nil
}

func (s *syncServiceImpl) newRequest(ctx context.Context, method, base, path string, body io.Reader, apiKey string) (*http.Request, error) {
	target, err := JoinAPIURL(base, path)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return httpReq, nil
}

func (s *syncServiceImpl) checkHealth(ctx context.Context, req SyncRequest) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.HealthTimeout)
	defer cancel()

	httpReq, err := s.newRequest(ctx, http.MethodGet, req.APIURL, "health", nil, req.APIKey)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

func (s *syncServiceImpl) exportLeg(ctx context.Context, req SyncRequest, profile syncprofile.Profile) (int, error) {
	snapshot, err := s.backups.Create(ctx)
	if err != nil {
		return 0, errors.New("Failed to create backup for sync")
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(profile.Outbound(snapshot)); err != nil {
		return 0, fmt.Errorf("failed to encode sync payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	httpReq, err := s.newRequest(ctx, http.MethodPost, req.APIURL, "import", &payload, req.APIKey)
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(SyncSourceHeader, SyncSource)
	httpReq.Header.Set(SyncVersionHeader, SyncVersion)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("Export failed: %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var ack struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(body, &ack); err == nil && ack.Imported > 0 {
		return ack.Imported, nil
	}
	return snapshot.Metadata.TotalStudents, nil
}

func (s *syncServiceImpl) importLeg(ctx context.Context, req SyncRequest, profile syncprofile.Profile) (int, []models.SyncConflict, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	httpReq, err := s.newRequest(fetchCtx, http.MethodGet, req.APIURL, "export", nil, req.APIKey)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(SyncSourceHeader, SyncSource)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("Import failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, nil, fmt.Errorf("Import failed: %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	incoming, err := profile.Inbound(body)
	if err != nil {
		return 0, nil, err
	}
	imported, conflicts := s.importStudents(ctx, incoming)
	return imported, conflicts, nil
}

// importStudents inserts the records whose NIM is not yet stored. Existing NIMs
// are reported as duplicates and left untouched.
func (s *syncServiceImpl) importStudents(ctx context.Context, incoming []models.Student) (int, []models.SyncConflict) {
	imported := 0
	conflicts := []models.SyncConflict{}

	for i := range incoming {
		external := incoming[i]
		local, err := s.students.GetByNIM(ctx, external.NIM)
		switch {
		case err == nil:
			conflicts = append(conflicts, models.SyncConflict{
				NIM:      external.NIM,
				Type:     models.ConflictDuplicate,
				Local:    local,
				External: &external,
			})
			metrics.ObserveSyncConflict(models.ConflictDuplicate)
			continue
		case !errors.Is(err, apperrors.ErrStudentNotFound):
			conflicts = append(conflicts, models.SyncConflict{
				NIM:   external.NIM,
				Type:  models.ConflictProcessError,
				Error: err.Error(),
			})
			metrics.ObserveSyncConflict(models.ConflictProcessError)
			continue
		}

		external.ID = 0
		if _, err := s.students.Create(ctx, &external); err != nil {
			conflicts = append(conflicts, models.SyncConflict{
				NIM:   external.NIM,
				Type:  models.ConflictInsertError,
				Error: err.Error(),
			})
			metrics.ObserveSyncConflict(models.ConflictInsertError)
			continue
		}
		imported++
	}
	return imported, conflicts
}

// NewSyncID returns a history id of the form sync_<unix-ms>_<8 hex chars>.
func NewSyncID(t time.Time) string {
	return "sync_" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// JoinAPIURL appends path to the base URL's path, keeping its query.
func JoinAPIURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid API URL: %s", MaskAPIURL(base))
	}
	return u.JoinPath(path).String(), nil
}

var apiKeyParam = regexp.MustCompile(`(?i)[?&]api_key=[^&]+`)

// MaskAPIURL strips credentials, port and query from a URL before it is stored.
func MaskAPIURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apiKeyParam.ReplaceAllString(raw, "?api_key=***")
	}
	return u.Scheme + "://" + u.Hostname() + u.EscapedPath()
}

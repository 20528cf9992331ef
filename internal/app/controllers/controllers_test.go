package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/examprogress/internal/app/controllers"
	"github.com/yigit/examprogress/internal/app/filter"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBackups struct {
	snapshot *models.BackupSnapshot
	restore  models.ImportResult
	content  []byte
	confirm  bool
}

func (s *stubBackups) Create(context.Context) (*models.BackupSnapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackups) Export(context.Context) (string, []byte, error) {
	return "backup-2024-05-17.json", []byte(`{"version":"1.0.0"}`), nil
}

func (s *stubBackups) Restore(_ context.Context, content []byte, confirmed bool) models.ImportResult {
	s.content, s.confirm = content, confirmed
	return s.restore
}

type stubAutoBackups struct {
	cleanupAge time.Duration
}

func (s *stubAutoBackups) RunOnce(context.Context) (*models.StoredBackup, error) {
	return &models.StoredBackup{Key: "autoBackup_1.json"}, nil
}

func (s *stubAutoBackups) List() ([]models.StoredBackup, error) {
	return []models.StoredBackup{{Key: "autoBackup_1.json"}}, nil
}

func (s *stubAutoBackups) Read(key string) ([]byte, error) {
	if key != "autoBackup_1.json" {
		return nil, apperrors.ErrBackupNotFound
	}
	return []byte(`{}`), nil
}

func (s *stubAutoBackups) Cleanup(maxAge time.Duration) (int, error) {
	s.cleanupAge = maxAge
	return 2, nil
}

type stubExports struct {
	scope string
}

func (s *stubExports) CSV(_ context.Context, scope string, _ filter.Criteria) (string, []byte, error) {
	s.scope = scope
	return "data-mahasiswa.csv", []byte("\uFEFFNo,NIM\n"), nil
}

func (s *stubExports) JSON(_ context.Context, scope string, _ filter.Criteria) (*dto.ExportJSONResponse, error) {
	s.scope = scope
	return &dto.ExportJSONResponse{Success: true, Type: scope, Data: []models.Student{}}, nil
}

func (s *stubExports) ValidateImportFile(content []byte) *dto.ImportValidationResponse {
	return &dto.ImportValidationResponse{Success: true, Valid: true, Count: 1, Message: "ok"}
}

type stubMaintenance struct {
	repair models.RepairResult
	issues []string
}

func (s *stubMaintenance) Validate(context.Context) models.ValidationReport {
	return models.ValidationReport{Valid: true, Issues: []string{}}
}

func (s *stubMaintenance) Repair(_ context.Context, issues []string) models.RepairResult {
	s.issues = issues
	return s.repair
}

func (s *stubMaintenance) Optimize(context.Context) models.OptimizeResult {
	return models.OptimizeResult{Success: true}
}

type stubSync struct {
	result  models.SyncResult
	request services.SyncRequest
	last    string
}

func (s *stubSync) Sync(_ context.Context, req services.SyncRequest) models.SyncResult {
	s.request = req
	return s.result
}

func (s *stubSync) History() []models.SyncRecord { return nil }

func (s *stubSync) LastSyncTime() string { return s.last }

type dataFixture struct {
	router      *gin.Engine
	backups     *stubBackups
	autoBackups *stubAutoBackups
	exports     *stubExports
	maintenance *stubMaintenance
	sync        *stubSync
}

func newDataFixture() *dataFixture {
	f := &dataFixture{
		backups:     &stubBackups{},
		autoBackups: &stubAutoBackups{},
		exports:     &stubExports{},
		maintenance: &stubMaintenance{},
		sync:        &stubSync{},
	}
	c := controllers.NewDataController(f.backups, f.autoBackups, f.exports, f.maintenance, f.sync, 0)

	r := gin.New()
	r.GET("/data/backup", c.GetBackup)
	r.POST("/data/backup", c.RestoreBackup)
	r.GET("/data/backup/auto/:key", c.GetAutoBackup)
	r.POST("/data/backup/auto", c.RunAutoBackup)
	r.POST("/data/backup/cleanup", c.CleanupBackups)
	r.GET("/data/export", c.Export)
	r.POST("/data/export", c.ValidateImport)
	r.GET("/data/maintenance", c.GetMaintenance)
	r.POST("/data/maintenance", c.RepairIssues)
	r.GET("/data/sync", c.GetSync)
	r.POST("/data/sync", c.Sync)
	f.router = r
	return f
}

func (f *dataFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target, field string, content []byte, values map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, "upload.json")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected an error envelope, got %s", w.Body.String())
	return detail["message"].(string)
}

func TestGetBackup(t *testing.T) {
	f := newDataFixture()
	thesis := "Kopi <robusta> & teh"
	f.backups.snapshot = &models.BackupSnapshot{
		Version:  "1.0.0",
		Metadata: models.BackupMetadata{TotalStudents: 1},
		Data:     models.BackupData{Students: []models.Student{{NIM: "2100001", Name: "Ani", ThesisTitle: &thesis}}},
	}

	w := f.do(httptest.NewRequest(http.MethodGet, "/data/backup?action=create", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Backup created with 1 students"`)
	assert.Contains(t, w.Body.String(), "Kopi <robusta> & teh")

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/backup?action=download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="backup-2024-05-17.json"`, w.Header().Get("Content-Disposition"))

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/backup?action=list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "autoBackup_1.json")

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/backup?action=explode", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action parameter", errorMessage(t, w))
}

func TestAutoBackupRoutes(t *testing.T) {
	f := newDataFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/data/backup/auto/autoBackup_1.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/backup/auto/missing.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/data/backup/auto", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/data/backup/cleanup", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30*24*time.Hour, f.autoBackups.cleanupAge)
	assert.Contains(t, w.Body.String(), "Removed 2 stored backups")
}

func TestRestoreBackup(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		f := newDataFixture()
		w := f.do(multipartRequest(t, "/data/backup", "", nil, map[string]string{"confirm": "true"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No backup file provided", errorMessage(t, w))
	})

	t.Run("applied", func(t *testing.T) {
		f := newDataFixture()
		f.backups.restore = models.ImportResult{Success: true, Message: "Successfully imported 3 students from backup", ImportedCount: 3}

		w := f.do(multipartRequest(t, "/data/backup", "backup", []byte(`{"data":{}}`), map[string]string{"confirm": "true"}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.backups.confirm)
		assert.Equal(t, `{"data":{}}`, string(f.backups.content))
		body := decode(t, w)
		assert.Equal(t, float64(3), body["importedCount"])
	})

	t.Run("oversized file", func(t *testing.T) {
		f := newDataFixture()
		oversized := bytes.Repeat([]byte(" "), 32<<20+1)
		w := f.do(multipartRequest(t, "/data/backup", "backup", oversized, map[string]string{"confirm": "true"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Uploaded file exceeds the 32 MiB upload limit", errorMessage(t, w))
		assert.Nil(t, f.backups.content, "restore must not run")
	})

	t.Run("confirm from query", func(t *testing.T) {
		f := newDataFixture()
		f.backups.restore = models.ImportResult{Success: true}
		w := f.do(multipartRequest(t, "/data/backup?confirm=true", "backup", []byte(`{}`), nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, f.backups.confirm)
	})

	t.Run("rejected", func(t *testing.T) {
		f := newDataFixture()
		f.backups.restore = models.ImportResult{
			Message:    "Data validation failed",
			Errors:     []string{"Student 1: NIM is required"},
			ErrorCount: 1,
		}
		w := f.do(multipartRequest(t, "/data/backup", "backup", []byte(`{}`), nil))
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, f.backups.confirm)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Data validation failed", body["error"])
		assert.Len(t, body["errors"], 1)
	})
}

func TestExport(t *testing.T) {
	f := newDataFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/data/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "data-mahasiswa.csv")
	assert.Equal(t, services.ExportAll, f.exports.scope)

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/export?format=json&type=completed", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", f.exports.scope)

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid format parameter. Use: excel, csv, or json", errorMessage(t, w))

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/export?type=graduated", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateImport(t *testing.T) {
	f := newDataFixture()

	w := f.do(multipartRequest(t, "/data/export", "data", []byte(`{"students":[]}`), map[string]string{"action": "validate"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = f.do(multipartRequest(t, "/data/export", "", nil, map[string]string{"action": "validate"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data file provided", errorMessage(t, w))

	w = f.do(multipartRequest(t, "/data/export", "data", []byte(`{}`), map[string]string{"action": "import"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaintenance(t *testing.T) {
	f := newDataFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/data/maintenance?action=validate", nil))
	require.Equal(t, http.StatusOK, w.Code)
	validation := decode(t, w)["validation"].(map[string]any)
	assert.Equal(t, true, validation["isValid"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/maintenance?action=optimize", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/maintenance?action=vacuum", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action parameter. Use: validate, optimize", errorMessage(t, w))
}

func TestRepairIssues(t *testing.T) {
	f := newDataFixture()
	f.maintenance.repair = models.RepairResult{Success: true, Repaired: []string{"a", "b"}, Failed: []string{}}

	w := f.do(jsonRequest(http.MethodPost, "/data/maintenance", `{"action":"repair","issues":["a","b"]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Repaired 2 issues", decode(t, w)["message"])
	assert.Equal(t, []string{"a", "b"}, f.maintenance.issues)

	f.maintenance.repair = models.RepairResult{Success: false, Repaired: []string{}, Failed: []string{"c"}}
	w = f.do(jsonRequest(http.MethodPost, "/data/maintenance", `{"action":"repair","issues":["c"]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Some issues could not be repaired automatically", decode(t, w)["message"])

	w = f.do(jsonRequest(http.MethodPost, "/data/maintenance", `{"action":"repair"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(jsonRequest(http.MethodPost, "/data/maintenance", `{"action":"delete","issues":[]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSync(t *testing.T) {
	t.Run("missing parameters", func(t *testing.T) {
		f := newDataFixture()
		w := f.do(jsonRequest(http.MethodPost, "/data/sync", `{"apiKey":"k"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.MsgSyncMissingParams, errorMessage(t, w))
	})

	t.Run("invalid direction", func(t *testing.T) {
		f := newDataFixture()
		w := f.do(jsonRequest(http.MethodPost, "/data/sync", `{"apiUrl":"http://x","syncDirection":"sideways"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid syncDirection. Use: import, export, or bidirectional", errorMessage(t, w))
	})

	t.Run("failure lists conflicts", func(t *testing.T) {
		f := newDataFixture()
		f.sync.result = models.SyncResult{Message: "Connection test failed: HTTP 503: Service Unavailable"}
		w := f.do(jsonRequest(http.MethodPost, "/data/sync", `{"apiUrl":"http://x","syncDirection":"import"}`))
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Connection test failed: HTTP 503: Service Unavailable", body["error"])
		assert.Equal(t, []any{}, body["conflicts"])
	})

	t.Run("success", func(t *testing.T) {
		f := newDataFixture()
		f.sync.result = models.SyncResult{Success: true, Message: "done", Synced: 4}
		w := f.do(jsonRequest(http.MethodPost, "/data/sync", `{"apiUrl":"http://x","apiKey":"k","syncDirection":"export"}`))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(4), body["synced"])
		assert.Equal(t, "unknown", body["systemType"])
		assert.Equal(t, models.SyncExport, f.sync.request.Direction)
		assert.Equal(t, "k", f.sync.request.APIKey)
	})
}

func TestGetSync(t *testing.T) {
	f := newDataFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/data/sync?action=status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)["status"].(map[string]any)
	assert.Nil(t, status["lastSync"])
	assert.Equal(t, true, status["syncEnabled"])
	assert.Equal(t, []any{"SIAKAD", "FEEDER", "Custom API"}, status["supportedSystems"])

	f.sync.last = "2024-05-17T08:30:00Z"
	w = f.do(httptest.NewRequest(http.MethodGet, "/data/sync?action=status", nil))
	status = decode(t, w)["status"].(map[string]any)
	assert.Equal(t, "2024-05-17T08:30:00Z", status["lastSync"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/sync?action=history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["history"])

	w = f.do(httptest.NewRequest(http.MethodGet, "/data/sync", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubStudents struct {
	services.StudentService
	updated models.StudentUpdate
}

func (s *stubStudents) Get(_ context.Context, id int64) (*models.Student, error) {
	if id != 1 {
		return nil, apperrors.ErrStudentNotFound
	}
	return &models.Student{ID: 1, NIM: "2100001", Name: "Ani"}, nil
}

func (s *stubStudents) Update(_ context.Context, id int64, update models.StudentUpdate) (*models.Student, error) {
	s.updated = update
	return &models.Student{ID: id, NIM: "2100001", Name: *update.Name}, nil
}

func TestStudentController(t *testing.T) {
	students := &stubStudents{}
	c := controllers.NewStudentController(students)
	r := gin.New()
	r.GET("/students/:id", c.GetStudent)
	r.PUT("/students/:id", c.UpdateStudent)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := serve(httptest.NewRequest(http.MethodGet, "/students/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "2100001", data["nim"])

	w = serve(httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid student ID", errorMessage(t, w))

	w = serve(httptest.NewRequest(http.MethodGet, "/students/9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(jsonRequest(http.MethodPut, "/students/1", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", errorMessage(t, w))

	w = serve(jsonRequest(http.MethodPut, "/students/1", `{"name":"Ani Lestari"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, students.updated.Name)
	assert.Equal(t, "Ani Lestari", *students.updated.Name)
}

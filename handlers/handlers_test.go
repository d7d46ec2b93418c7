package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"p9e.in/sitebook/config"
	"p9e.in/sitebook/handlers"
	"p9e.in/sitebook/logger"
	"p9e.in/sitebook/middleware"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/blob"
	"p9e.in/sitebook/pkg/notify"
	"p9e.in/sitebook/pkg/reconcile"
	"p9e.in/sitebook/pkg/store"
	"p9e.in/sitebook/routes"
)

const testSecret = "test-secret"

type testServer struct {
	db      *gorm.DB
	handler http.Handler
	feed    *notify.Feed
	uploads string
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrations(db))

	var n int64
	codes := store.CodeFunc(func(context.Context) (string, error) {
		return fmt.Sprintf("MR-20240305-%04d", atomic.AddInt64(&n, 1)), nil
	})
	log := logger.Discard()
	stores := store.New(db, codes, log)
	require.NoError(t, stores.RefreshAll(context.Background()))

	dir := t.TempDir()
	blobs, err := blob.NewLocalStore(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)

	feed := notify.NewFeed(20)
	d := handlers.Deps{
		Stores:     stores,
		Reconciler: reconcile.New(stores.MaterialTracking, log),
		Blobs:      blobs,
		Notifier:   notify.NewHub(log, feed),
		Feed:       feed,
		Log:        log,
		MaxFiles:   3,
	}
	h := routes.RegisterRoutes(d, routes.Options{UploadDir: dir, JWTSecret: testSecret})
	return &testServer{db: db, handler: h, feed: feed, uploads: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *testServer) createProject(t *testing.T, name string) models.Project {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/projects", map[string]interface{}{
		"name":       name,
		"location":   "Bangkok",
		"start_date": "2024-01-01",
		"end_date":   "2024-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Project
	decodeBody(t, rec, &p)
	return p
}

func (s *testServer) createRequest(t *testing.T, projectID uuid.UUID) models.MaterialRequest {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/material-requests", map[string]interface{}{
		"project_id":     projectID,
		"requester_name": "Somchai",
		"request_date":   "2024-03-05",
		"status":         "approved",
		"material_items": []map[string]interface{}{
			{"item_name": "Steel Bar", "quantity": 100, "unit": "15"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req models.MaterialRequest
	decodeBody(t, rec, &req)
	return req
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/material-requests/{id}/status")
}

func TestProjectEndpoints(t *testing.T) {
	s := newServer(t)

	t.Run("create", func(t *testing.T) {
		p := s.createProject(t, "Tower A")
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, models.ProjectPending, p.Status)
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/projects", map[string]interface{}{
			"location":   "Bangkok",
			"start_date": "2024-02-01",
			"end_date":   "2024-01-01",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		decodeBody(t, rec, &body)
		assert.Contains(t, body.Fields, "name")
		assert.Contains(t, body.Fields, "end_date")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list with filter", func(t *testing.T) {
		s.createProject(t, "Mall B")
		rec := s.do(t, http.MethodGet, "/api/v1/projects?search=mall", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Projects     []models.Project `json:"projects"`
			StatusCounts map[string]int   `json:"status_counts"`
			Total        int              `json:"total"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.Projects, 1)
		assert.Equal(t, "Mall B", body.Projects[0].Name)
		assert.Equal(t, 2, body.Total)
		assert.Equal(t, 2, body.StatusCounts["pending"])
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/projects/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = s.do(t, http.MethodGet, "/api/v1/projects/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("map is not an id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/projects/map", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "FeatureCollection")
	})
}

func TestDeleteProjectWithProgressConflicts(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower A")
	rec := s.do(t, http.MethodPost, "/api/v1/progress-updates", map[string]interface{}{
		"project_id":          p.ID,
		"progress_percentage": 30,
		"description":         "Columns cast",
		"updated_by":          "Malee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/v1/projects/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveReconcilesTracking(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower A")
	req := s.createRequest(t, p.ID)
	assert.Equal(t, models.RequestPending, req.Status, "new requests start pending")
	assert.Equal(t, "MR-20240305-0001", req.RequestCode)

	token, err := middleware.GenerateToken([]byte(testSecret), "u-1", "Khun Niran", "manager")
	require.NoError(t, err)
	rec := s.do(t, http.MethodPut, "/api/v1/material-requests/"+req.ID.String()+"/status",
		map[string]string{"status": "approved"}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		MaterialRequest models.MaterialRequest `json:"material_request"`
		Reconciliation  struct {
			State    string `json:"state"`
			Outcomes []struct {
				Description       string  `json:"description"`
				Amount            float64 `json:"amount"`
				RemainingQuantity float64 `json:"remaining_quantity"`
			} `json:"outcomes"`
		} `json:"reconciliation"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "Khun Niran", body.MaterialRequest.ApprovedBy)
	assert.Equal(t, "applied", body.Reconciliation.State)
	require.Len(t, body.Reconciliation.Outcomes, 1)
	assert.Equal(t, 15.0, body.Reconciliation.Outcomes[0].Amount)
	assert.Equal(t, 85.0, body.Reconciliation.Outcomes[0].RemainingQuantity)

	rec = s.do(t, http.MethodGet, "/api/v1/material-tracking?project_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2024-03-05":15`)

	// approving again does not consume twice
	rec = s.do(t, http.MethodPut, "/api/v1/material-requests/"+req.ID.String()+"/status",
		map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"reconciliation"`)

	t.Run("summary", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/material-summary?month=2024-03&project_id="+p.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sum struct {
			Days []struct {
				Key   string `json:"key"`
				Label string `json:"label"`
			} `json:"days"`
			Rows []struct {
				Description string  `json:"description"`
				Total       float64 `json:"total_quantity"`
				Used        float64 `json:"used_quantity"`
				Withdrawals map[string][]struct {
					Amount    float64 `json:"amount"`
					Requester string  `json:"requester"`
				} `json:"daily_withdrawals"`
			} `json:"rows"`
		}
		decodeBody(t, rec, &sum)
		require.Len(t, sum.Days, 30)
		assert.Equal(t, "01/03/67", sum.Days[0].Label)
		require.Len(t, sum.Rows, 1)
		assert.Equal(t, "Steel Bar", sum.Rows[0].Description)
		assert.Equal(t, 15.0, sum.Rows[0].Used)
		require.Len(t, sum.Rows[0].Withdrawals["2024-03-05"], 1)
		assert.Equal(t, "Somchai", sum.Rows[0].Withdrawals["2024-03-05"][0].Requester)
	})

	t.Run("summary rejects bad month", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/material-summary?month=March", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/material-summary/export?month=2024-03&project_id="+p.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		title, err := f.GetCellValue("Material Summary", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Material summary - Tower A", title)
	})
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower A")
	req := s.createRequest(t, p.ID)

	rec := s.do(t, http.MethodPut, "/api/v1/material-requests/"+req.ID.String()+"/status",
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/material-requests/"+uuid.NewString()+"/status",
		map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusChangesConsumeStockOnce(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower B")
	req := s.createRequest(t, p.ID)
	path := "/api/v1/material-requests/" + req.ID.String() + "/status"

	steps := []struct {
		status   string
		wantCode int
	}{
		{"approved", http.StatusOK},
		{"pending", http.StatusBadRequest},
		{"approved", http.StatusOK},
		{"rejected", http.StatusBadRequest},
		{"approved", http.StatusOK},
		{"delivered", http.StatusOK},
		{"approved", http.StatusBadRequest},
	}
	for i, st := range steps {
		rec := s.do(t, http.MethodPut, path, map[string]string{"status": st.status})
		require.Equal(t, st.wantCode, rec.Code, "step %d (%s): %s", i, st.status, rec.Body.String())
		if i > 0 {
			assert.NotContains(t, rec.Body.String(), `"reconciliation"`, "step %d", i)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/v1/material-tracking?project_id="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rows []struct {
			Description string             `json:"description"`
			Used        float64            `json:"used_quantity"`
			Remaining   float64            `json:"remaining_quantity"`
			Usage       map[string]float64 `json:"date_usage"`
		} `json:"material_tracking"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, 15.0, body.Rows[0].Used)
	assert.Equal(t, 85.0, body.Rows[0].Remaining)
	assert.Equal(t, map[string]float64{"2024-03-05": 15}, body.Rows[0].Usage)
}

func TestApproveWithUnwritableTrackingResponds500(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower C")
	req := s.createRequest(t, p.ID)
	require.NoError(t, s.db.Migrator().DropTable(&models.MaterialTracking{}))

	rec := s.do(t, http.MethodPut, "/api/v1/material-requests/"+req.ID.String()+"/status",
		map[string]string{"status": "approved"})
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	var body struct {
		MaterialRequest models.MaterialRequest `json:"material_request"`
		Error           string                 `json:"error"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, models.RequestApproved, body.MaterialRequest.Status, "status change stays")
	assert.Contains(t, body.Error, req.RequestCode)
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/projects", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadImages(t *testing.T) {
	s := newServer(t)

	upload := func(t *testing.T, contentType string, count int) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("folder", "progress"))
		for i := 0; i < count; i++ {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="site-%d.png"`, i))
			h.Set("Content-Type", contentType)
			part, err := mw.CreatePart(h)
			require.NoError(t, err)
			part.Write([]byte("\x89PNG fake image"))
		}
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("stores images", func(t *testing.T) {
		rec := upload(t, "image/png", 2)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body struct {
			URLs []string `json:"urls"`
		}
		decodeBody(t, rec, &body)
		require.Len(t, body.URLs, 2)
		for _, u := range body.URLs {
			assert.True(t, strings.HasPrefix(u, "http://localhost:8080/uploads/progress/"), u)
			assert.True(t, strings.HasSuffix(u, ".png"), u)
			key := strings.TrimPrefix(u, "http://localhost:8080/uploads/")
			_, err := os.Stat(filepath.Join(s.uploads, filepath.FromSlash(key)))
			assert.NoError(t, err)
		}
	})

	t.Run("rejects non images", func(t *testing.T) {
		rec := upload(t, "application/pdf", 1)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects too many files", func(t *testing.T) {
		rec := upload(t, "image/jpeg", 4)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNotificationsFeed(t *testing.T) {
	s := newServer(t)
	s.createProject(t, "Tower A")
	s.do(t, http.MethodPost, "/api/v1/projects", map[string]interface{}{"name": "broken"})

	rec := s.do(t, http.MethodGet, "/api/v1/notifications?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Notifications []notify.Notice `json:"notifications"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Notifications, 2)
	assert.Equal(t, notify.LevelError, body.Notifications[0].Level)
	assert.Equal(t, "Could not create project", body.Notifications[0].Title)
	assert.Equal(t, "Project created", body.Notifications[1].Title)
}

func TestDashboardStats(t *testing.T) {
	s := newServer(t)
	p := s.createProject(t, "Tower A")
	s.createRequest(t, p.ID)

	rec := s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Projects         map[string]int `json:"projects"`
		MaterialRequests map[string]int `json:"material_requests"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Projects["pending"])
	assert.Equal(t, 1, body.MaterialRequests["pending"])
	assert.Equal(t, 0, body.MaterialRequests["approved"])
}

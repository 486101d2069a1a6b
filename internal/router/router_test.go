// router_test.go runs end-to-end API tests over the full middleware and
// handler stack. Tests are skipped when PostgreSQL is not available.
package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	"intercept/internal/auth"
	"intercept/internal/content"
	"intercept/internal/database"
	"intercept/internal/handlers"
	"intercept/internal/models"
	"intercept/internal/store"
	"intercept/internal/uploads"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "intercept")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "intercept")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

type testApp struct {
	srv     *httptest.Server
	db      *sql.DB
	tokens  *auth.Service
	sweeper *content.Sweeper
	users   *store.UserStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)

	files, err := uploads.New(t.TempDir())
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}

	userStore := store.NewUserStore(db)
	contentStore := store.NewContentStore(db)
	activityStore := store.NewActivityStore(db)

	tokens := auth.New("test-secret", time.Hour)
	svc := content.NewService(contentStore, files, activityStore, userStore, nil)
	sweeper := content.NewSweeper(contentStore, activityStore, nil, time.Minute)

	h := Handlers{
		Auth:       handlers.NewAuth(userStore, tokens, activityStore),
		Blogs:      handlers.NewContent(svc, contentStore, nil, models.ContentTypeBlog),
		Podcasts:   handlers.NewContent(svc, contentStore, nil, models.ContentTypePodcast),
		Comments:   handlers.NewComments(store.NewCommentStore(db), contentStore, activityStore),
		Newsletter: handlers.NewNewsletter(store.NewNewsletterStore(db), activityStore),
		Reports:    handlers.NewReports(store.NewReportStore(db), activityStore),
		Resources:  handlers.NewResources(store.NewResourceStore(db), activityStore),
		Users:      handlers.NewUsers(userStore, activityStore),
		Activities: handlers.NewActivities(activityStore),
		Health:     handlers.NewHealth(db, sweeper),
	}

	srv := httptest.NewServer(New(tokens, h, files.Dir()))
	t.Cleanup(srv.Close)

	return &testApp{srv: srv, db: db, tokens: tokens, sweeper: sweeper, users: userStore}
}

// seedUser inserts a user with a known password and returns it with a
// signed token.
func (app *testApp) seedUser(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := app.users.Create(&models.User{
		Name:         "Test " + string(role),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() {
		app.db.Exec(`DELETE FROM content WHERE author_id = $1`, u.ID)
		app.db.Exec(`DELETE FROM users WHERE id = $1`, u.ID)
	})

	token, err := app.tokens.Token(u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return u, token
}

// request performs an HTTP request against the test server and decodes
// the JSON response into out (when out is non-nil).
func (app *testApp) request(t *testing.T, method, path, token string, body io.Reader, contentType string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, app.srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func (app *testApp) postJSON(t *testing.T, path, token string, payload, out any) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return app.request(t, http.MethodPost, path, token, bytes.NewReader(body), "application/json", out)
}

// contentForm builds a multipart body from field values.
func contentForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	var body map[string]any
	status := app.request(t, http.MethodGet, "/health", "", nil, "", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() {
		app.db.Exec(`DELETE FROM users WHERE email = $1`, email)
	})

	var reg struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	status := app.postJSON(t, "/api/auth/register", "", map[string]any{
		"name":     "New Reader",
		"email":    email,
		"password": "password123",
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	if reg.Token == "" || reg.User == nil || reg.User.Role != models.RoleUser {
		t.Fatalf("register response: %+v", reg)
	}

	// Duplicate registration conflicts.
	status = app.postJSON(t, "/api/auth/register", "", map[string]any{
		"name":     "New Reader",
		"email":    email,
		"password": "password123",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate register status = %d", status)
	}

	var login struct {
		Token string `json:"token"`
	}
	status = app.postJSON(t, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "password123",
	}, &login)
	if status != http.StatusOK || login.Token == "" {
		t.Fatalf("login status = %d", status)
	}

	status = app.postJSON(t, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", status)
	}
}

func TestBlogRejectsAudioUpload(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, models.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", "Audio on a blog"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("audio", "episode.mp3")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write([]byte("not really audio")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	status := app.request(t, http.MethodPost, "/api/blogs", adminToken, &buf, mw.FormDataContentType(), nil)
	if status != http.StatusBadRequest {
		t.Fatalf("blog with audio part: got %d, want 400", status)
	}
}

func TestBlogCRUDAndVisibility(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, models.RoleAdmin)
	_, userToken := app.seedUser(t, models.RoleUser)

	// Non-admins cannot create.
	form, ct := contentForm(t, map[string]string{"title": "Nope", "body": "x"})
	if status := app.request(t, http.MethodPost, "/api/blogs", userToken, form, ct, nil); status != http.StatusForbidden {
		t.Fatalf("user create status = %d", status)
	}

	marker := uuid.NewString()
	form, ct = contentForm(t, map[string]string{
		"title":    "Published " + marker,
		"body":     "Body",
		"status":   "published",
		"tags":     `["news"]`,
		"category": "updates",
	})
	var created struct {
		ID     uuid.UUID            `json:"id"`
		Status models.ContentStatus `json:"status"`
		Views  int64                `json:"views"`
	}
	if status := app.request(t, http.MethodPost, "/api/blogs", adminToken, form, ct, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}

	form, ct = contentForm(t, map[string]string{
		"title": "Draft " + marker,
		"body":  "Body",
	})
	var draft struct {
		ID uuid.UUID `json:"id"`
	}
	if status := app.request(t, http.MethodPost, "/api/blogs", adminToken, form, ct, &draft); status != http.StatusCreated {
		t.Fatalf("draft create status = %d", status)
	}

	// Public list only shows the published item.
	var listed []struct {
		ID uuid.UUID `json:"id"`
	}
	if status := app.request(t, http.MethodGet, "/api/blogs?search="+marker, "", nil, "", &listed); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("public list = %+v", listed)
	}

	// Admin list shows both.
	if status := app.request(t, http.MethodGet, "/api/blogs?search="+marker, adminToken, nil, "", &listed); status != http.StatusOK {
		t.Fatalf("admin list status = %d", status)
	}
	if len(listed) != 2 {
		t.Fatalf("admin list has %d items, want 2", len(listed))
	}

	// Public read counts a view; the draft stays hidden.
	var got struct {
		Views int64 `json:"views"`
	}
	if status := app.request(t, http.MethodGet, "/api/blogs/"+created.ID.String(), "", nil, "", &got); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if got.Views != 1 {
		t.Errorf("views = %d, want 1", got.Views)
	}
	if status := app.request(t, http.MethodGet, "/api/blogs/"+draft.ID.String(), "", nil, "", nil); status != http.StatusNotFound {
		t.Errorf("public draft get status = %d", status)
	}

	// Update, then delete.
	form, ct = contentForm(t, map[string]string{"title": "Renamed " + marker})
	if status := app.request(t, http.MethodPut, "/api/blogs/"+created.ID.String(), adminToken, form, ct, nil); status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	if status := app.request(t, http.MethodDelete, "/api/blogs/"+created.ID.String(), adminToken, nil, "", nil); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	if status := app.request(t, http.MethodGet, "/api/blogs/"+created.ID.String(), adminToken, nil, "", nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d", status)
	}
}

func TestScheduledPublishFlow(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, models.RoleAdmin)

	// Scheduling in the past is rejected outright.
	form, ct := contentForm(t, map[string]string{
		"title":       "Too late",
		"body":        "Body",
		"status":      "scheduled",
		"scheduledAt": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	if status := app.request(t, http.MethodPost, "/api/blogs", adminToken, form, ct, nil); status != http.StatusBadRequest {
		t.Fatalf("past schedule status = %d", status)
	}

	form, ct = contentForm(t, map[string]string{
		"title":       "Scheduled " + uuid.NewString(),
		"body":        "Body",
		"status":      "scheduled",
		"scheduledAt": time.Now().Add(2 * time.Second).Format(time.RFC3339),
	})
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if status := app.request(t, http.MethodPost, "/api/blogs", adminToken, form, ct, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}

	// Not yet due: the sweep leaves it alone and public readers cannot
	// see it.
	if status := app.request(t, http.MethodGet, "/api/blogs/"+created.ID.String(), "", nil, "", nil); status != http.StatusNotFound {
		t.Errorf("public get before publish = %d", status)
	}

	time.Sleep(2100 * time.Millisecond)

	published, err := app.sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if published < 1 {
		t.Fatalf("sweep published %d items", published)
	}

	var got struct {
		Status      models.ContentStatus `json:"status"`
		ScheduledAt *time.Time           `json:"scheduled_at"`
	}
	if status := app.request(t, http.MethodGet, "/api/blogs/"+created.ID.String(), "", nil, "", &got); status != http.StatusOK {
		t.Fatalf("public get after publish = %d", status)
	}
	if got.Status != models.ContentStatusPublished {
		t.Errorf("status = %q", got.Status)
	}
	if got.ScheduledAt != nil {
		t.Error("published item should carry no schedule")
	}
}

func TestAdminSurfaceRequiresRole(t *testing.T) {
	app := newTestApp(t)
	_, userToken := app.seedUser(t, models.RoleUser)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/activities"},
		{http.MethodGet, "/api/reports"},
		{http.MethodGet, "/api/newsletter"},
	}

	for _, p := range paths {
		if status := app.request(t, p.method, p.path, "", nil, "", nil); status != http.StatusUnauthorized {
			t.Errorf("%s %s anonymous status = %d", p.method, p.path, status)
		}
		if status := app.request(t, p.method, p.path, userToken, nil, "", nil); status != http.StatusForbidden {
			t.Errorf("%s %s user status = %d", p.method, p.path, status)
		}
	}
}

func TestNewsletterAndReports(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, models.RoleAdmin)

	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() {
		app.db.Exec(`DELETE FROM newsletter_subscriptions WHERE email = $1`, email)
	})

	if status := app.postJSON(t, "/api/newsletter/subscribe", "", map[string]any{"email": email}, nil); status != http.StatusCreated {
		t.Fatalf("subscribe status = %d", status)
	}
	if status := app.postJSON(t, "/api/newsletter/subscribe", "", map[string]any{"email": email}, nil); status != http.StatusConflict {
		t.Errorf("duplicate subscribe status = %d", status)
	}
	if status := app.postJSON(t, "/api/newsletter/unsubscribe", "", map[string]any{"email": email}, nil); status != http.StatusOK {
		t.Errorf("unsubscribe status = %d", status)
	}
	// Resubscribing reactivates.
	if status := app.postJSON(t, "/api/newsletter/subscribe", "", map[string]any{"email": email}, nil); status != http.StatusCreated {
		t.Errorf("resubscribe status = %d", status)
	}

	var report struct {
		ID        uuid.UUID `json:"id"`
		Name      *string   `json:"name"`
		Anonymous bool      `json:"anonymous"`
	}
	status := app.postJSON(t, "/api/reports", "", map[string]any{
		"message":   "Something happened",
		"name":      "Witness",
		"anonymous": true,
	}, &report)
	if status != http.StatusCreated {
		t.Fatalf("report status = %d", status)
	}
	t.Cleanup(func() {
		app.db.Exec(`DELETE FROM reports WHERE id = $1`, report.ID)
	})
	if report.Name != nil {
		t.Error("anonymous report must not keep the name")
	}

	var updated struct {
		Status models.ReportStatus `json:"status"`
	}
	body, _ := json.Marshal(map[string]string{"status": "resolved"})
	status = app.request(t, http.MethodPatch, "/api/reports/"+report.ID.String()+"/status", adminToken,
		bytes.NewReader(body), "application/json", &updated)
	if status != http.StatusOK || updated.Status != models.ReportResolved {
		t.Fatalf("patch status = %d, report %+v", status, updated)
	}
}

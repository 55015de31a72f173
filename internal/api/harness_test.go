package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"careersite/internal/auth"
	"careersite/internal/company"
	"careersite/internal/config"
	"careersite/internal/database/dbtest"
	"careersite/internal/jobs"
	"careersite/internal/page"
	"careersite/internal/storage"
	"careersite/internal/tasks"
	"careersite/internal/uploads"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Open(_ context.Context, key string) (io.ReadCloser, storage.ObjectMeta, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectMeta{}, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectMeta{Key: key, Size: int64(len(b)), ContentType: m.types[key]}, nil
}

func (m *memObjects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example.invalid/" + key, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	svc, err := auth.NewAuthService(privPEM, pubPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// fakeNotifications 记录订阅者，测试通过 publish 推送消息。
type fakeNotifications struct {
	mu   sync.Mutex
	subs map[uint]chan []byte
}

func (f *fakeNotifications) Subscribe(_ context.Context, recruiterID uint) (<-chan []byte, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = map[uint]chan []byte{}
	}
	ch := make(chan []byte, 4)
	f.subs[recruiterID] = ch
	return ch, func() {}, nil
}

func (f *fakeNotifications) publish(recruiterID uint, payload string) bool {
	f.mu.Lock()
	ch, ok := f.subs[recruiterID]
	f.mu.Unlock()
	if ok {
		ch <- []byte(payload)
	}
	return ok
}

type testAPI struct {
	t             *testing.T
	router        *gin.Engine
	db            *gorm.DB
	objects       *memObjects
	notifications *fakeNotifications
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	objects := newMemObjects()
	notifications := &fakeNotifications{}
	cfg := &config.Config{API: config.APIConfig{
		PublicBaseURL:  "https://careers.example.test",
		AssetBaseURL:   "https://cdn.example.test",
		MaxUploadBytes: 1 << 20,
		JobsPageSize:   9,
	}}

	router := NewRouter(cfg, logger)
	RegisterRoutes(router, Deps{
		Config:        cfg,
		Logger:        logger,
		Notifications: notifications,
		Auth:          newTestAuthService(t),
		Accounts:      auth.NewAccounts(db),
		Companies:     company.NewService(db, tasks.NopEnqueuer{}, logger),
		Jobs:          jobs.NewService(db, tasks.NopEnqueuer{}, logger),
		Feed:          jobs.NewGormSource(db),
		Uploads: &uploads.Service{
			Objects:   objects,
			Assets:    uploads.NewGormAssetStore(db),
			Processor: uploads.Processor{MaxBytes: 1 << 20, MaxWidth: 1600},
			Scanner:   uploads.NopScanner{},
			Logger:    logger,
		},
		Public:  page.NewRenderer(nil),
		Preview: page.NewRenderer(nil),
	})
	return &testAPI{t: t, router: router, db: db, objects: objects, notifications: notifications}
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// do 发送 JSON 请求；body 为 nil 时不带请求体。
func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *testAPI) register(email string) (token string, recruiterID uint) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/auth/register", gin.H{"email": email, "password": "correct-horse"}, "")
	if w.Code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	var resp authResponse
	decode(a.t, w, &resp)
	return resp.AccessToken, resp.Recruiter.ID
}

type companyResponse struct {
	Company company.Company `json:"company"`
}

func (a *testAPI) createCompany(token, name string) company.Company {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/companies", gin.H{"name": name}, token)
	if w.Code != http.StatusCreated {
		a.t.Fatalf("create company: %d %s", w.Code, w.Body.String())
	}
	var resp companyResponse
	decode(a.t, w, &resp)
	return resp.Company
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/events"
	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	store  storage.Storage
	cfg    *config.Config
	log    *logrus.Logger
}

func newTestServer(t *testing.T, google *config.GoogleConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "api.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		BcryptCost:         4,
		AdminEmail:         "admin@sanjuantahitic.mx",
		FrontendURL:        "http://front.test",
		StorageDriver:      "local",
		UploadDir:          filepath.Join(dir, "uploads"),
		PublicUploadPrefix: "/uploads",
		MaxImageBytes:      1 << 20,
		MaxPDFBytes:        1 << 20,
	}
	store, err := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicUploadPrefix)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	SetupRoutes(r, Dependencies{
		Cfg:       cfg,
		DB:        db,
		Store:     store,
		Publisher: events.NopPublisher{},
		Google:    google,
		Log:       log,
	})
	return &testServer{router: r, db: db, store: store, cfg: cfg, log: log}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "routes-test")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createPlace(t *testing.T) *models.Place {
	t.Helper()
	place := &models.Place{Nombre: "Cascada", Descripcion: "d", Ubicacion: "u", Categoria: "naturaleza"}
	if err := s.db.Create(place).Error; err != nil {
		t.Fatalf("create place: %v", err)
	}
	return place
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "admin",
		"email":    "admin@example.com",
		"password": "secreto123",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return res.Token
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(http.MethodGet, "/api/health", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"database":"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestSubmitRatingAndReadItBack(t *testing.T) {
	s := newTestServer(t, nil)
	place := s.createPlace(t)

	w := s.do(http.MethodPost, "/api/calificaciones", gin.H{"lugarId": place.ID, "calificacion": 4}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/calificaciones", gin.H{"lugarId": place.ID, "calificacion": 2, "comentario": "Regular"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("resubmit: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/calificaciones/lugar/"+itoa(place.ID)+"/mi-calificacion", nil, "")
	var mine struct {
		Calificacion *models.Rating `json:"calificacion"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &mine)
	if w.Code != http.StatusOK || mine.Calificacion == nil || mine.Calificacion.Calificacion != 2 {
		t.Fatalf("my rating: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/lugares/"+itoa(place.ID), nil, "")
	var detail struct {
		Data models.Place `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Data.PuntuacionPromedio != 2 || detail.Data.TotalCalificaciones != 1 {
		t.Fatalf("aggregate not updated: %s", w.Body.String())
	}
}

func TestSubmitRatingValidation(t *testing.T) {
	s := newTestServer(t, nil)
	place := s.createPlace(t)

	cases := []struct {
		name string
		body interface{}
		code int
	}{
		{"score too high", gin.H{"lugarId": place.ID, "calificacion": 6}, http.StatusBadRequest},
		{"missing place", gin.H{"calificacion": 3}, http.StatusBadRequest},
		{"unknown place", gin.H{"lugarId": 999, "calificacion": 3}, http.StatusNotFound},
		{"long comment", gin.H{"lugarId": place.ID, "calificacion": 3, "comentario": strings.Repeat("x", 501)}, http.StatusBadRequest},
	}
	for _, c := range cases {
		w := s.do(http.MethodPost, "/api/calificaciones", c.body, "")
		if w.Code != c.code {
			t.Errorf("%s: got %d, want %d (%s)", c.name, w.Code, c.code, w.Body.String())
			continue
		}
		if errorMessage(t, w) == "" {
			t.Errorf("%s: missing error message", c.name)
		}
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	place := s.createPlace(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/lugares"},
		{http.MethodDelete, "/api/lugares/" + itoa(place.ID)},
		{http.MethodDelete, "/api/lugares/" + itoa(place.ID) + "/fotos/1"},
		{http.MethodGet, "/api/experiencias/admin/todas"},
		{http.MethodGet, "/api/calificaciones/lugar/" + itoa(place.ID)},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, p := range paths {
		w := s.do(p.method, p.path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d", p.method, p.path, w.Code)
		}
		w = s.do(p.method, p.path, nil, "not-a-token")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: got %d", p.method, p.path, w.Code)
		}
	}
}

func TestRegistrationClosesAfterFirstAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.adminToken(t)

	body := gin.H{"username": "segundo", "email": "segundo@example.com", "password": "secreto123"}
	if w := s.do(http.MethodPost, "/api/auth/register", body, ""); w.Code != http.StatusForbidden {
		t.Fatalf("anonymous register: got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/auth/register", body, token); w.Code != http.StatusCreated {
		t.Fatalf("admin register: got %d %s", w.Code, w.Body.String())
	}

	w := s.do(http.MethodGet, "/api/auth/verify", nil, token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"valid":true`) {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
}

func TestDeletePrincipalPhotoConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.adminToken(t)
	place := s.createPlace(t)

	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	info, err := utils.InspectImage(buf.Bytes(), 1<<20)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	gallery := services.NewGalleryService(s.db, s.store, s.log)
	img := services.ImageUpload{Data: buf.Bytes(), Info: info}
	photos, err := gallery.AddPhotos(context.Background(), place.ID, []services.ImageUpload{img, img}, false)
	if err != nil {
		t.Fatalf("add photos: %v", err)
	}

	base := "/api/lugares/" + itoa(place.ID) + "/fotos/"
	w := s.do(http.MethodDelete, base+itoa(photos[0].ID), nil, token)
	if w.Code != http.StatusConflict || errorMessage(t, w) == "" {
		t.Fatalf("delete principal: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodPut, base+itoa(photos[1].ID)+"/principal", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("promote: %d %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodDelete, base+itoa(photos[0].ID), nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete after promote: %d %s", w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/lugares/"+itoa(place.ID)+"/galeria", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"es_principal":true`) {
		t.Fatalf("gallery: %d %s", w.Code, w.Body.String())
	}
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	cfg := &config.Config{Google: config.GoogleOAuthConfig{ClientID: "id", ClientSecret: "secret"}}
	s := newTestServer(t, config.NewGoogleConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=abc&code=xyz", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "other"})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("callback: got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "http://front.test/admin/login?error=invalid_state" {
		t.Fatalf("location = %q", loc)
	}
}

func TestGoogleDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	if w := s.do(http.MethodGet, "/api/auth/google", nil, ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("google login: got %d", w.Code)
	}
	w := s.do(http.MethodGet, "/api/auth/google/callback", nil, "")
	if w.Code != http.StatusFound || !strings.HasSuffix(w.Header().Get("Location"), "error=google_disabled") {
		t.Fatalf("callback: %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestGoogleTokenAllowlist(t *testing.T) {
	tokeninfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := "admin@sanjuantahitic.mx"
		if r.URL.Query().Get("id_token") == "intruso" {
			email = "intruso@gmail.com"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":            "g-123",
			"aud":            "id",
			"email":          email,
			"email_verified": "true",
		})
	}))
	defer tokeninfo.Close()

	cfg := &config.Config{Google: config.GoogleOAuthConfig{ClientID: "id", ClientSecret: "secret"}}
	google := config.NewGoogleConfig(cfg)
	google.TokenInfoURL = tokeninfo.URL
	s := newTestServer(t, google)

	if w := s.do(http.MethodPost, "/api/auth/google/token", gin.H{"id_token": "intruso"}, ""); w.Code != http.StatusForbidden {
		t.Fatalf("intruder: got %d %s", w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/api/auth/google/token", gin.H{"id_token": "ok"}, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"token"`) {
		t.Fatalf("admin: %d %s", w.Code, w.Body.String())
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sanjuan-tahitic/api-go/config"
	"github.com/sanjuan-tahitic/api-go/events"
	"github.com/sanjuan-tahitic/api-go/models"
	"github.com/sanjuan-tahitic/api-go/storage"
	"github.com/sanjuan-tahitic/api-go/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh SQLite database with the production schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func createPlace(t *testing.T, db *gorm.DB, nombre, categoria string) *models.Place {
	t.Helper()
	place := &models.Place{
		Nombre:      nombre,
		Descripcion: "Descripción de " + nombre,
		Ubicacion:   "San Juan Tahitic, Puebla",
		Categoria:   categoria,
	}
	if err := db.Create(place).Error; err != nil {
		t.Fatalf("create place: %v", err)
	}
	return place
}

func reloadPlace(t *testing.T, db *gorm.DB, id uint) models.Place {
	t.Helper()
	var place models.Place
	if err := db.First(&place, id).Error; err != nil {
		t.Fatalf("reload place %d: %v", id, err)
	}
	return place
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func imageUpload(t *testing.T, descripcion string) ImageUpload {
	t.Helper()
	data := pngBytes(t, 4, 3)
	info, err := utils.InspectImage(data, 1<<20)
	if err != nil {
		t.Fatalf("inspect png: %v", err)
	}
	return ImageUpload{Data: data, Info: info, Descripcion: descripcion}
}

func pdfUpload(t *testing.T) PDFUpload {
	t.Helper()
	data := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	info, err := utils.InspectPDF(data, 1<<20)
	if err != nil {
		t.Fatalf("inspect pdf: %v", err)
	}
	return PDFUpload{Data: data, Info: info}
}

// memStore is an in-memory storage.Storage. failAfter > 0 makes the Nth and
// later saves fail.
type memStore struct {
	mu        sync.Mutex
	seq       int
	files     map[string][]byte
	deleted   []string
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte)}
}

func (m *memStore) Save(_ context.Context, folder, ext, _ string, data []byte) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if m.failAfter > 0 && m.seq >= m.failAfter {
		return storage.Object{}, errors.New("disk full")
	}
	key := fmt.Sprintf("%s/%d%s", folder, m.seq, ext)
	m.files[key] = data
	return storage.Object{Path: key, URL: m.URL(key), Size: int64(len(data))}, nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memStore) URL(path string) string {
	return "/uploads/" + path
}

func (m *memStore) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ExperienceSubmitted
	err    error
}

func (p *recordingPublisher) PublishExperienceSubmitted(_ context.Context, ev events.ExperienceSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
		BcryptCost: 4,
		AdminEmail: "admin@sanjuantahitic.mx",
	}
}

package testutil

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/cognisync/cognisync-api/internal/analysis"
	"github.com/cognisync/cognisync-api/internal/api"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository"
	repoPostgres "github.com/cognisync/cognisync-api/internal/repository/postgres"
	"github.com/cognisync/cognisync-api/internal/service"
)

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies. The
// analyzer may be nil for a deployment without analysis configured.
func NewTestServer(t *testing.T, analyzer analysis.Analyzer) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig(t)

	repos := repoPostgres.NewRepositories(testDB.DB)

	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		t.Fatalf("failed to initialize cipher: %v", err)
	}
	files := filestore.NewLocal(cfg.UploadDir, cipher)

	services := service.NewServices(repos, files, cipher, analyzer, cfg)
	router := api.NewRouter(services, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

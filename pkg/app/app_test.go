package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	_ "github.com/code-payments/instruction-server/pkg/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig.ListenAddress, config.ListenAddress)
	assert.Equal(t, defaultConfig.AppName, config.AppName)
	assert.Equal(t, 30*time.Second, config.ShutdownGracePeriod)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: test-app
listen_address: ":9999"
shutdown_grace_period: 5s
enable_ballast: true
app:
  rpc_endpoint: http://localhost:8899
`), 0600))

	config, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "test-app", config.AppName)
	assert.Equal(t, ":9999", config.ListenAddress)
	assert.Equal(t, 5*time.Second, config.ShutdownGracePeriod)
	assert.True(t, config.EnableBallast)
	assert.Equal(t, "http://localhost:8899", config.AppConfig["rpc_endpoint"])

	// Untouched values keep their defaults
	assert.Equal(t, defaultConfig.HealthListenAddress, config.HealthListenAddress)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: [unterminated"), 0600))

	_, err := loadConfig(viper.New(), path)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0600))

	for _, u := range []string{path, "file://" + path} {
		b, err := LoadFile(u)
		require.NoError(t, err, u)
		assert.Equal(t, "contents", string(b))
	}

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadFile("unknown://bucket/key")
	assert.Error(t, err)
}

func TestRegisterFileLoaderCtor_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterFileLoaderCtor("file", newLocalLoader)
	})
}

func TestOptions_MiddlewareOrder(t *testing.T) {
	var order []string
	middleware := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var o opts
	WithHTTPMiddleware(middleware("first"))(&o)
	WithHTTPMiddleware(middleware("second"))(&o)

	handler := o.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestNewDebugMux(t *testing.T) {
	assert.Nil(t, newDebugMux(BaseConfig{}))

	mux := newDebugMux(BaseConfig{EnableExpvar: true})
	require.NotNil(t, mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewMemoryLeakCron(t *testing.T) {
	_, err := newMemoryLeakCron("not a schedule", make(chan struct{}))
	assert.Error(t, err)

	cronJob, err := newMemoryLeakCron(defaultConfig.MemoryLeakCronSchedule, make(chan struct{}))
	require.NoError(t, err)
	assert.Len(t, cronJob.Entries(), 1)
}

func TestLoadTLSConfig(t *testing.T) {
	config, err := loadTLSConfig(BaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, config)

	_, err = loadTLSConfig(BaseConfig{TLSCertificate: "cert.pem"})
	assert.Error(t, err)

	_, err = loadTLSConfig(BaseConfig{
		TLSCertificate: filepath.Join(t.TempDir(), "cert.pem"),
		TLSKey:         filepath.Join(t.TempDir(), "key.pem"),
	})
	assert.Error(t, err)
}

func TestHealthServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serv, status := newHealthServer()
	go func() {
		_ = serv.Serve(lis)
	}()
	defer serv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := healthgrpc.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthgrpc.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthgrpc.HealthCheckResponse_SERVING, resp.Status)

	status.Shutdown()

	resp, err = client.Check(ctx, &healthgrpc.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthgrpc.HealthCheckResponse_NOT_SERVING, resp.Status)
}

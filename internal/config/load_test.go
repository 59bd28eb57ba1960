package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp switches into a fresh directory with a configs/ subdirectory and
// returns the subdirectory path.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	configsDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(configsDir, 0755))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalWD) })
	require.NoError(t, os.Chdir(tempDir))
	return configsDir
}

func TestLoadConfig_HappyPath(t *testing.T) {
	configsDir := chdirTemp(t)

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nSTORAGE_DRIVER=%s\nAPP_PUBLIC_BASE_URL=%s\n",
		"TestHub", 9090, "debug", DriverMemory, "https://qr.example.com",
	)
	require.NoError(t, os.WriteFile(filepath.Join(configsDir, "test_happy.env"), []byte(envContent), 0644))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "TestHub", cfg.Application.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "https://qr.example.com", cfg.Application.PublicBaseURL)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "corp_qr_hub_data", cfg.Storage.Key)
	assert.Equal(t, "scan_recorded", cfg.Kafka.ScanTopic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 256, cfg.Render.DefaultSize)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	configsDir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(configsDir, "test_env.env"), []byte("STORAGE_KEY=from_file\n"), 0644))
	t.Setenv("STORAGE_KEY", "from_env")

	cfg, err := LoadConfig("test_env")
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Storage.Key)
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig("does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "qrhub.db", cfg.Storage.SQLitePath)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORAGE_DRIVER", "floppy")

	cfg, err := LoadConfig("does_not_exist")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER must be one of")
}

func validConfig() *Config {
	return &Config{
		Application: ApplicationConfig{Env: "test", Name: "qrhub", PublicBaseURL: "http://localhost:8080"},
		Logging:     LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: time.Second,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			SessionCookie:   "qrhub_session",
			SessionTTL:      time.Hour,
		},
		Storage: StorageConfig{Driver: DriverMemory, Key: "corp_qr_hub_data"},
		Render:  RenderConfig{DefaultSize: 256, MaxSize: 1024},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("MemoryDriverNeedsNoBackendSettings", func(t *testing.T) {
		assert.NoError(t, validConfig().validate())
	})

	t.Run("PostgresDriverChecksPostgres", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = DriverPostgres
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_URL is required")
	})

	t.Run("MongoDriverChecksCollection", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = DriverMongo
		cfg.MongoDB = MongoDBConfig{URI: "mongodb://m", Database: "qrhub", Timeout: time.Second, MaxPoolSize: 1, MaxConnIdleTime: time.Second}
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MONGO_STORE_COLLECTION is required")
	})

	t.Run("S3CredentialsMustBePaired", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = DriverS3
		cfg.S3 = S3Config{Region: "us-east-1", Bucket: "b", AccessKey: "only-key"}
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "S3_ACCESS_KEY and S3_SECRET_KEY")
	})

	t.Run("KafkaCheckedOnlyWhenEnabled", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.validate())

		cfg.Kafka.Enabled = true
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS is required")
		assert.Contains(t, err.Error(), "WORKER_POOL_SIZE must be greater than 0")
	})

	t.Run("RenderBounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.Render.MaxSize = 10
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RENDER_MAX_SIZE")
	})
}

func TestConfig_ValidateArchiver(t *testing.T) {
	cfg := validConfig()
	err := cfg.ValidateArchiver()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SCAN_TOPIC is required")
	assert.Contains(t, err.Error(), "MONGO_URI is required")

	cfg.Kafka = KafkaConfig{
		Brokers: "localhost:9092", ScanTopic: "scan_recorded", ConsumerGroup: "g",
		MinBytes: 1, MaxBytes: 1024, MaxWait: time.Second, DLQTopic: "dlq",
	}
	cfg.MongoDB = MongoDBConfig{
		URI: "mongodb://m", Database: "qrhub", Timeout: time.Second, MaxPoolSize: 1,
		MaxConnIdleTime: time.Second, ArchiveCollection: "scan_events",
	}
	cfg.WorkerPool.Size = 2
	assert.NoError(t, cfg.ValidateArchiver())
}

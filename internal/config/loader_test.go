package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://restful-booker.herokuapp.com", cfg.BaseURL)
	assert.Equal(t, 5, cfg.Users)
	assert.Equal(t, 15*time.Second, cfg.Duration.Std())
	assert.Equal(t, 10*time.Second, cfg.Timeout.Std())
	assert.Equal(t, "admin", cfg.Credentials().Username)
	assert.Equal(t, "password123", cfg.Credentials().Password)
	assert.Equal(t, 500*time.Millisecond, cfg.Swarm.WaitMin.Std())
	assert.Equal(t, 2*time.Second, cfg.Swarm.WaitMax.Std())
	assert.Equal(t, map[string]int{"ping": 1, "auth": 2, "create_get_delete": 3}, cfg.Swarm.Weights)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "booker.yaml", `
baseUrl: http://localhost:3001
users: 12
duration: 30
timeout: 2s
pacing: 250ms
swarm:
  waitMin: 100ms
  waitMax: 1s
  spawnRate: 4
  weights:
    ping: 5
attack:
  rate: 50
`)

	cfg, err := Load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.BaseURL)
	assert.Equal(t, 12, cfg.Users)
	assert.Equal(t, 30*time.Second, cfg.Duration.Std())
	assert.Equal(t, 2*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing.Std())
	assert.Equal(t, 4.0, cfg.Swarm.SpawnRate)
	// Weights from a file replace the defaults.
	assert.Equal(t, map[string]int{"ping": 5}, cfg.Swarm.Weights)
	assert.Equal(t, 50, cfg.Attack.Rate)
	assert.Equal(t, 10*time.Second, cfg.Attack.Duration.Std())
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "booker.json", `{"baseUrl": "http://127.0.0.1:8080", "users": 2, "duration": "45s", "timeout": 3}`)

	cfg, err := Load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, 2, cfg.Users)
	assert.Equal(t, 45*time.Second, cfg.Duration.Std())
	assert.Equal(t, 3*time.Second, cfg.Timeout.Std())
}

func TestLoad_FileWeights(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want map[string]int
	}{
		{name: "yaml", file: "c.yaml", body: "swarm:\n  weights:\n    ping: 1\n", want: map[string]int{"ping": 1}},
		{name: "json", file: "c.json", body: `{"swarm": {"weights": {"create_get_delete": 4}}}`, want: map[string]int{"create_get_delete": 4}},
		{name: "absent keeps defaults", file: "c.yaml", body: "swarm:\n  spawnRate: 2\n", want: DefaultWeights()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.body), env(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Swarm.Weights)
		})
	}

	cfg := Default()
	assert.Error(t, Parse([]byte(`{"swarm": `), "c.json", cfg))
	assert.Equal(t, DefaultWeights(), cfg.Swarm.Weights)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "booker.yml", "users: 12\nduration: 30s\n")

	cfg, err := Load(path, env(map[string]string{
		EnvBaseURL:  "http://booker.test",
		EnvUsers:    "7",
		EnvDuration: "20",
		EnvTimeout:  "1500ms",
		EnvUsername: "ops",
		EnvPassword: "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://booker.test", cfg.BaseURL)
	assert.Equal(t, 7, cfg.Users)
	assert.Equal(t, 20*time.Second, cfg.Duration.Std())
	assert.Equal(t, 20*time.Second, cfg.Attack.Duration.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout.Std())
	assert.Equal(t, "ops", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", `{"users": `), env(nil))
	assert.ErrorContains(t, err, "JSON")

	_, err = Load(writeFile(t, "bad.yaml", "duration: soon\n"), env(nil))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load("", env(map[string]string{EnvUsers: "five"}))
	assert.ErrorContains(t, err, EnvUsers)

	_, err = Load("", env(map[string]string{EnvDuration: "forever"}))
	assert.ErrorContains(t, err, EnvDuration)
}

func TestParseDurationString(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"15", 15 * time.Second, false},
		{" 15 ", 15 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"abc", 0, true},
		{"15x", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDurationString(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

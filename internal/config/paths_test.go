package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- ParseConfigPath tests ---

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "gateway", []string{"gateway"}, false},
		{"two segments", "gateway.port", []string{"gateway", "port"}, false},
		{"three segments", "gateway.auth.token", []string{"gateway", "auth", "token"}, false},
		{"empty", "", nil, true},
		{"empty segment", "gateway..port", nil, true},
		{"leading dot", ".gateway", nil, true},
		{"trailing dot", "gateway.", nil, true},
		{"blocked __proto__", "foo.__proto__.bar", nil, true},
		{"blocked prototype", "prototype.x", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// --- GetValueAtPath tests ---

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"provider": map[string]any{
			"type": "gemini",
			"retry": map[string]any{
				"maxAttempts": 3,
			},
		},
		"simple": "value",
	}

	tests := []struct {
		name string
		path []string
		want any
		ok   bool
	}{
		{"nested value", []string{"provider", "type"}, "gemini", true},
		{"deeply nested", []string{"provider", "retry", "maxAttempts"}, 3, true},
		{"top level", []string{"simple"}, "value", true},
		{"missing key", []string{"nonexistent"}, nil, false},
		{"missing nested", []string{"provider", "nonexistent"}, nil, false},
		{"non-map intermediate", []string{"simple", "sub"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := GetValueAtPath(root, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, val)
			}
		})
	}
}

// --- SetValueAtPath tests ---

func TestSetValueAtPath_Update(t *testing.T) {
	root := map[string]any{
		"gateway": map[string]any{
			"port": 18790,
		},
	}

	SetValueAtPath(root, []string{"gateway", "port"}, 9999)
	val, ok := GetValueAtPath(root, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 9999, val)
}

func TestSetValueAtPath_CreatesIntermediates(t *testing.T) {
	root := map[string]any{}

	SetValueAtPath(root, []string{"a", "b", "c"}, "deep")
	val, ok := GetValueAtPath(root, []string{"a", "b", "c"})
	assert.True(t, ok)
	assert.Equal(t, "deep", val)
}

func TestSetValueAtPath_OverwritesNonMap(t *testing.T) {
	root := map[string]any{
		"gateway": "string-not-map",
	}

	SetValueAtPath(root, []string{"gateway", "port"}, 8080)
	val, ok := GetValueAtPath(root, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 8080, val)
}

// --- UnsetValueAtPath tests ---

func TestUnsetValueAtPath_PreserveSiblings(t *testing.T) {
	root := map[string]any{
		"executor": map[string]any{
			"mode":    "http",
			"baseUrl": "http://localhost:4310",
		},
	}

	ok := UnsetValueAtPath(root, []string{"executor", "baseUrl"})
	assert.True(t, ok)

	_, found := GetValueAtPath(root, []string{"executor", "baseUrl"})
	assert.False(t, found)

	val, found := GetValueAtPath(root, []string{"executor", "mode"})
	assert.True(t, found)
	assert.Equal(t, "http", val)
}

func TestUnsetValueAtPath_NotFound(t *testing.T) {
	root := map[string]any{"gateway": map[string]any{"port": 18790}}
	assert.False(t, UnsetValueAtPath(root, []string{"gateway", "nonexistent"}))
	assert.False(t, UnsetValueAtPath(map[string]any{}, []string{"a", "b", "c"}))
	assert.False(t, UnsetValueAtPath(map[string]any{"gateway": "string"}, []string{"gateway", "port"}))
}

// --- ResolvePaths tests ---

func TestResolvePaths_Default(t *testing.T) {
	t.Setenv("WAWA_HOME", "")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".wawa"), paths.Base)
	assert.Equal(t, filepath.Join(home, ".wawa", "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(home, ".wawa", "skills"), paths.Skills)
	assert.Equal(t, filepath.Join(home, ".wawa", "logs"), paths.Logs)
	assert.Equal(t, filepath.Join(home, ".wawa", "data"), paths.Data)
	assert.Equal(t, filepath.Join(home, ".wawa", "data", "wawa.db"), paths.DB)
}

func TestResolvePaths_CustomHome(t *testing.T) {
	t.Setenv("WAWA_HOME", "/tmp/testwawa")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/testwawa", paths.Base)
	assert.Equal(t, "/tmp/testwawa/config.yaml", paths.Config)
	assert.Equal(t, "/tmp/testwawa/skills", paths.Skills)
	assert.Equal(t, "/tmp/testwawa/data/wawa.db", paths.DB)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("WAWA_HOME", t.TempDir())

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs()) // second call should succeed

	for _, d := range []string{paths.Base, paths.Skills, paths.Logs, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSkillFiles(t *testing.T) {
	t.Setenv("WAWA_HOME", t.TempDir())
	paths, err := ResolvePaths()
	require.NoError(t, err)

	files, err := paths.SkillFiles()
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, paths.EnsureDirs())
	for _, name := range []string{"b.toml", "a.yaml", "notes.txt", "c.YML"} {
		require.NoError(t, os.WriteFile(filepath.Join(paths.Skills, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(paths.Skills, "sub.yaml"), 0o700))

	files, err = paths.SkillFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(paths.Skills, "a.yaml"),
		filepath.Join(paths.Skills, "b.toml"),
		filepath.Join(paths.Skills, "c.YML"),
	}, files)
}

func TestBlockedKeys(t *testing.T) {
	assert.True(t, blockedKeys["__proto__"])
	assert.True(t, blockedKeys["prototype"])
	assert.True(t, blockedKeys["constructor"])
	assert.False(t, blockedKeys["gateway"])
}

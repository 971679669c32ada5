package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsByKey(settings []SettingInfo) map[string]SettingInfo {
	m := make(map[string]SettingInfo, len(settings))
	for _, s := range settings {
		m[s.Key] = s
	}
	return m
}

func TestIntrospect_Sources(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cohort"), DefaultDirPermissions))
	userFile := filepath.Join(home, ".cohort", "am.toml")
	require.NoError(t, os.WriteFile(userFile, []byte("[endpoint]\nurl = \"http://user.example/sparql\"\n[server]\nport = 9001\n"), 0644))

	project := t.TempDir()
	projectFile := filepath.Join(project, "am.toml")
	require.NoError(t, os.WriteFile(projectFile, []byte("[server]\nport = 9002\n"), 0644))

	t.Setenv("HOME", home)
	t.Setenv("COHORT_DATABASE_PATH", "/tmp/env.db")
	testChdir(t, project)
	Reset()
	t.Cleanup(Reset)

	settings, err := Introspect()
	require.NoError(t, err)
	byKey := settingsByKey(settings)

	assert.Equal(t, SourceUser, byKey["endpoint.url"].Source)
	assert.Equal(t, userFile, byKey["endpoint.url"].SourcePath)

	assert.Equal(t, SourceProject, byKey["server.port"].Source, "project file wins over user file")
	assert.EqualValues(t, 9002, byKey["server.port"].Value)

	assert.Equal(t, SourceEnvironment, byKey["database.path"].Source)
	assert.Equal(t, "COHORT_DATABASE_PATH", byKey["database.path"].SourcePath)

	assert.Equal(t, SourceDefault, byKey["study.name"].Source)

	for i := 1; i < len(settings); i++ {
		assert.Less(t, settings[i-1].Key, settings[i].Key)
	}
}

func TestConfigPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	testChdir(t, t.TempDir())

	paths := ConfigPaths()
	require.Len(t, paths, 1, "no project am.toml above a fresh temp dir")
	assert.Equal(t, filepath.Join(home, ".cohort", "am.toml"), paths[0])
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

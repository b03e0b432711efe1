package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	path := writeFile(t, "name: ${SAMPLE_NAME}\nport: 7\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Port != 7 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "port: 7\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadIfExists_Missing(t *testing.T) {
	s := sample{Name: "default"}
	found, err := LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	if err != nil || found {
		t.Fatalf("LoadIfExists = %v, %v", found, err)
	}
	if s.Name != "default" {
		t.Errorf("defaults should be kept, got %+v", s)
	}
}

func TestLoadIfExists_MissingStillValidates(t *testing.T) {
	var s sample
	if _, err := LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("invalid defaults should fail validation")
	}
}

func TestLoadIfExists_Present(t *testing.T) {
	path := writeFile(t, "name: file\n")
	s := sample{Name: "default", Port: 1}
	found, err := LoadIfExists(path, &s)
	if err != nil || !found {
		t.Fatalf("LoadIfExists = %v, %v", found, err)
	}
	if s.Name != "file" || s.Port != 1 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "name: fallback\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("got %+v", s)
	}
}

package main

import (
	"path/filepath"
	"testing"
)

func TestRepositoryName(t *testing.T) {
	tests := []struct {
		name    string
		repoDir string
		want    string
	}{
		{
			name:    "absolute path uses last element",
			repoDir: "/srv/checkouts/myproject",
			want:    "myproject",
		},
		{
			name:    "relative dot resolves to working directory name",
			repoDir: ".",
			want:    mustBase(t),
		},
		{
			name:    "trailing separator is ignored",
			repoDir: "/srv/checkouts/myproject/",
			want:    "myproject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repositoryName(tt.repoDir); got != tt.want {
				t.Fatalf("repositoryName(%q) = %q, want %q", tt.repoDir, got, tt.want)
			}
		})
	}
}

func mustBase(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	return filepath.Base(abs)
}

func TestDefaultConfigPaths(t *testing.T) {
	paths := defaultConfigPaths()
	if len(paths) == 0 || paths[0] != "." {
		t.Fatalf("expected current directory first, got %v", paths)
	}
}

package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := &ListDirectoryTool{}
	res, err := tool.Execute(context.Background(), &Context{}, map[string]any{"directoryPath": dir})
	if err != nil {
		t.Fatalf("Execute returned fault: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s: %s", res.Status, res.Message)
	}

	var payload struct {
		DirectoryPath string `json:"directoryPath"`
		Entries       []struct {
			Name string  `json:"name"`
			Type string  `json:"type"`
			Size float64 `json:"size"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(res.Message), &payload); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}

	if len(payload.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(payload.Entries))
	}

	// Directories sort first, then files by name.
	if payload.Entries[0].Name != "sub" || payload.Entries[0].Type != "directory" {
		t.Errorf("expected sub directory first, got %+v", payload.Entries[0])
	}
	if payload.Entries[1].Name != "a.txt" {
		t.Errorf("expected a.txt second, got %+v", payload.Entries[1])
	}
	if payload.Entries[2].Name != "b.txt" || payload.Entries[2].Size != 5 {
		t.Errorf("expected b.txt with size 5, got %+v", payload.Entries[2])
	}
}

func TestListDirectoryMissing(t *testing.T) {
	tool := &ListDirectoryTool{}
	res, err := tool.Execute(context.Background(), &Context{}, map[string]any{
		"directoryPath": "/no/such/path/exists",
	})
	if err != nil {
		t.Fatalf("Execute returned fault: %v", err)
	}
	if res.Status != StatusError {
		t.Fatalf("expected error for missing directory, got %s", res.Status)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListDirectoryTool lists the contents of a local directory.
type ListDirectoryTool struct{}

func (t *ListDirectoryTool) Name() string { return "list_directory" }

func (t *ListDirectoryTool) Description() string {
	return "Lists the contents of a directory, showing files and subdirectories with their types and sizes. Use this to explore the filesystem and find files before accessing them."
}

func (t *ListDirectoryTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"directoryPath": map[string]any{
				"type":        "string",
				"description": "The directory path to list contents (supports ~ for home directory)",
				"minLength":   1,
				"maxLength":   1000,
			},
		},
		"required":             []string{"directoryPath"},
		"additionalProperties": false,
	}
}

func (t *ListDirectoryTool) CanUse(tc *Context) bool { return true }

func (t *ListDirectoryTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	rawPath := argString(args, "directoryPath")
	expanded := expandPath(rawPath)

	entries, err := os.ReadDir(expanded)
	if err != nil {
		return failure("Failed to list directory: " + err.Error()), nil
	}

	type dirEntry struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Size int64  `json:"size,omitempty"`
	}

	listed := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		item := dirEntry{Name: entry.Name(), Type: "file"}
		if entry.IsDir() {
			item.Type = "directory"
		} else if info, err := entry.Info(); err == nil {
			item.Size = info.Size()
		}
		listed = append(listed, item)
	}

	sort.Slice(listed, func(i, j int) bool {
		if listed[i].Type != listed[j].Type {
			return listed[i].Type == "directory"
		}
		return listed[i].Name < listed[j].Name
	})

	serialized := make([]map[string]any, 0, len(listed))
	for _, e := range listed {
		m := map[string]any{"name": e.Name, "type": e.Type}
		if e.Type == "file" {
			m["size"] = e.Size
		}
		serialized = append(serialized, m)
	}

	return success(map[string]any{
		"directoryPath": rawPath,
		"expandedPath":  expanded,
		"entries":       serialized,
	}), nil
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}

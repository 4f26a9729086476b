package tools

import (
	"context"
	"strings"
	"testing"
)

func TestFilesystemTool_WriteReadList(t *testing.T) {
	fs := NewFilesystemTool(t.TempDir())
	ctx := context.Background()

	if _, err := fs.Execute(ctx, `{"command": "write", "filename": "notes/today.md", "content": "hello"}`); err != nil {
		t.Fatal(err)
	}

	got, err := fs.Execute(ctx, `{"command": "read", "filename": "notes/today.md"}`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("read = %q", got)
	}

	listing, err := fs.Execute(ctx, `{"command": "list", "filename": "notes"}`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(listing, "today.md") {
		t.Errorf("listing = %q", listing)
	}
}

func TestFilesystemTool_RejectsEscapingPath(t *testing.T) {
	fs := NewFilesystemTool(t.TempDir())
	_, err := fs.Execute(context.Background(), `{"command": "read", "filename": "../../etc/passwd"}`)
	if err == nil || !strings.Contains(err.Error(), "unsafe path") {
		t.Errorf("err = %v, want unsafe path rejection", err)
	}
}

func TestFilesystemTool_DeleteMissing(t *testing.T) {
	fs := NewFilesystemTool(t.TempDir())
	if _, err := fs.Execute(context.Background(), `{"command": "delete", "filename": "nope.txt"}`); err == nil {
		t.Error("expected an error deleting a missing file")
	}
}

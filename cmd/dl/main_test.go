package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLinkedWork(t *testing.T) {
	items, err := parseLinkedWork([]string{"ISS-1", "ISS-2:WEB-2", "R-1:DOC-9:u2"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[1].Key != "WEB-2" || items[1].AssigneeID != nil {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
	if items[2].AssigneeID == nil || *items[2].AssigneeID != "u2" {
		t.Fatalf("assignee not parsed: %+v", items[2])
	}
	if _, err := parseLinkedWork([]string{":KEY"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestSetEnvValueKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DAILYLINE_JWT_SECRET=abc\nDAILYLINE_DEFAULT_PROJECT=old\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := setEnvValue(path, "DAILYLINE_DEFAULT_PROJECT", "squad"); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `DAILYLINE_DEFAULT_PROJECT="squad"`) || !strings.Contains(got, `DAILYLINE_JWT_SECRET="abc"`) {
		t.Fatalf("unexpected .env content: %q", got)
	}
}

func TestSetEnvValueCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := setEnvValue(path, "DAILYLINE_DEFAULT_PROJECT", "squad"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" member, ,lead ")
	if len(got) != 2 || got[0] != "member" || got[1] != "lead" {
		t.Fatalf("unexpected split: %v", got)
	}
}

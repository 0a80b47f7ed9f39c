package cliutil

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Paintersrp/kill-code/internal/forks"
)

func testFork() forks.Fork {
	return forks.Fork{
		ID:             12,
		ParentID:       3,
		User:           "dev",
		Commands:       []string{"node server.js --token=abc123", "sleep 5"},
		Members:        []int{12, 13, 14},
		Summary:        "12: (dev) node server.js --token=abc123; sleep 5",
		CommandSummary: "node server.js --token=abc123; sleep 5",
	}
}

func TestEncodeForkWritesJSONLine(t *testing.T) {
	var out bytes.Buffer
	var errBuf bytes.Buffer

	EncodeFork(json.NewEncoder(&out), &errBuf, testFork(), false)

	if errBuf.Len() != 0 {
		t.Fatalf("unexpected stderr output: %s", errBuf.String())
	}
	if !strings.HasSuffix(out.String(), "\n") {
		t.Fatalf("expected newline-terminated record, got %q", out.String())
	}

	var record ForkRecord
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("failed to unmarshal fork record: %v", err)
	}
	if record.ID != 12 || record.ParentID != 3 || record.User != "dev" || record.Self {
		t.Fatalf("unexpected record %+v", record)
	}
	if !reflect.DeepEqual(record.Members, []int{12, 13, 14}) {
		t.Fatalf("unexpected members %v", record.Members)
	}
	if record.Commands[0] != "node server.js --token=abc123" {
		t.Fatalf("expected raw command without redaction, got %q", record.Commands[0])
	}
}

func TestNewForkRecordRedacts(t *testing.T) {
	f := testFork()
	record := NewForkRecord(f, true)

	if strings.Contains(record.Summary, "abc123") || strings.Contains(record.Commands[0], "abc123") {
		t.Fatalf("expected token redacted, got %+v", record)
	}
	if f.Commands[0] != "node server.js --token=abc123" {
		t.Fatalf("expected source fork untouched, got %q", f.Commands[0])
	}
}

func TestNewForkRecordEmptyForkEncodesArrays(t *testing.T) {
	data, err := json.Marshal(NewForkRecord(forks.Fork{ID: 1}, false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"commands":[]`) || !strings.Contains(string(data), `"members":[]`) {
		t.Fatalf("expected empty arrays rather than null, got %s", data)
	}
}

func TestEncodeForkNilEncoder(t *testing.T) {
	var errBuf bytes.Buffer
	EncodeFork(nil, &errBuf, testFork(), false)
	if errBuf.Len() != 0 {
		t.Fatalf("expected nil encoder to be ignored")
	}
}

func TestDisplayHelpers(t *testing.T) {
	f := testFork()
	if DisplaySummary(f, false) != f.Summary {
		t.Fatalf("expected summary unchanged without redaction")
	}
	if strings.Contains(DisplaySummary(f, true), "abc123") {
		t.Fatalf("expected summary redacted")
	}
	cmds := DisplayCommands(f, true)
	if cmds[0] != "node server.js --token=[redacted]" || cmds[1] != "sleep 5" {
		t.Fatalf("unexpected display commands %q", cmds)
	}
}

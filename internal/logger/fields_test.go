package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFieldsFallsBackToNop(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	enriched := WithFields(zap.New(core), zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["foo"]; got != "bar" {
		t.Fatalf("expected field to be bar, got %q", got)
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  gemini  ", "gemini-2.5-flash", "formatter")
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	want := map[string]string{
		FieldProvider: "gemini",
		FieldModel:    "gemini-2.5-flash",
		FieldAgent:    "formatter",
	}
	for _, f := range fields {
		if want[f.Key] != f.String {
			t.Fatalf("unexpected field %s=%q", f.Key, f.String)
		}
	}

	if empty := CommonFields("", "", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithOwner(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithOwner(zap.New(core), "owner-1").Info("scoped")
	WithOwner(zap.New(core), "  ").Info("unscoped")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()[FieldOwner] != "owner-1" {
		t.Fatalf("expected owner field, got %v", entries[0].ContextMap())
	}
	if _, ok := entries[1].ContextMap()[FieldOwner]; ok {
		t.Fatalf("did not expect owner field for blank owner")
	}
}

func TestNew(t *testing.T) {
	for _, json := range []bool{true, false} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("new logger (json=%v): %v", json, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug level to be enabled")
		}
	}
}

package main

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBuildPayload(t *testing.T) {
	payload, err := buildPayload([]string{
		"name=Ada",
		"age=36",
		"active=true",
		"address.city=Berlin",
		"address.zip=\"10115\"",
		"tags=[\"a\",\"b\"]",
	})
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}

	// Round-trip through JSON so raw literals take their wire shape.
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]any{
		"name":   "Ada",
		"age":    float64(36),
		"active": true,
		"address": map[string]any{
			"city": "Berlin",
			"zip":  "10115",
		},
		"tags": []any{"a", "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("payload = %#v, want %#v", got, want)
	}
}

func TestBuildPayloadRejectsBadArgs(t *testing.T) {
	for _, arg := range []string{"noequals", "=value", "a..b=1"} {
		if _, err := buildPayload([]string{arg}); err == nil {
			t.Errorf("buildPayload(%q) succeeded, want error", arg)
		}
	}
}

func TestBuildPayloadPathConflict(t *testing.T) {
	_, err := buildPayload([]string{"a=1", "a.b=2"})
	if err == nil {
		t.Fatal("expected conflict error for a=1 then a.b=2")
	}
}

func TestRawOrString(t *testing.T) {
	tests := []struct {
		in   string
		want string // JSON encoding after marshal
	}{
		{"hello", `"hello"`},
		{"42", `42`},
		{"-3.5", `-3.5`},
		{"true", `true`},
		{"null", `null`},
		{`{"a":1}`, `{"a":1}`},
		{`[1,2]`, `[1,2]`},
		{`"quoted"`, `"quoted"`},
		{"{not json", `"{not json"`},
	}
	for _, tt := range tests {
		raw, err := json.Marshal(rawOrString(tt.in))
		if err != nil {
			t.Fatalf("marshal(%q): %v", tt.in, err)
		}
		if string(raw) != tt.want {
			t.Errorf("rawOrString(%q) marshals to %s, want %s", tt.in, raw, tt.want)
		}
	}
}

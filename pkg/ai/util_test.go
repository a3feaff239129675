package ai

import (
	"strings"
	"testing"
)

type sampleOut struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sampleOut
	}{
		{
			name:  "standard json",
			input: `{"name": "graph", "count": 3}`,
			want:  sampleOut{Name: "graph", Count: 3},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"graph\", \"count\": 3}"`,
			want:  sampleOut{Name: "graph", Count: 3},
		},
		{
			name:  "unquoted keys repaired",
			input: `{name: "graph", count: 3}`,
			want:  sampleOut{Name: "graph", Count: 3},
		},
		{
			name:  "trailing comma repaired",
			input: `{"name": "graph", "count": 3,}`,
			want:  sampleOut{Name: "graph", Count: 3},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name": "graph", "count": 3}`,
			want:  sampleOut{Name: "graph", Count: 3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out sampleOut
			if err := UnmarshalFlexible(tc.input, &out); err != nil {
				t.Fatalf("UnmarshalFlexible() error: %v", err)
			}
			if out != tc.want {
				t.Fatalf("UnmarshalFlexible() = %+v, want %+v", out, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrepairable(t *testing.T) {
	var out sampleOut
	if err := UnmarshalFlexible("not json at all", &out); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "wrapped in prose",
			input: "Sure! Here is the analysis:\n```json\n{\"a\": 1}\n```\nLet me know.",
			want:  `{"a": 1}`,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 2}} suffix`,
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:    "no object",
			input:   "the image shows a flowchart",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONObject() error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ExtractJSONObject() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, err := ExtractJSONArray(`The relations are: [{"source": "a"}] as requested.`)
	if err != nil {
		t.Fatalf("ExtractJSONArray() error: %v", err)
	}
	if got != `[{"source": "a"}]` {
		t.Fatalf("ExtractJSONArray() = %q", got)
	}

	if _, err := ExtractJSONArray("no array here"); err == nil {
		t.Fatal("expected error for input without array")
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(sampleOut{})
	if schema == nil {
		t.Fatal("expected non-nil schema")
	}

	// The reflector is configured to inline definitions, so the field names
	// must appear directly in the serialized schema.
	str := schemaString(t, schema)
	for _, field := range []string{"name", "count"} {
		if !strings.Contains(str, field) {
			t.Fatalf("schema missing field %q: %s", field, str)
		}
	}
}

func schemaString(t *testing.T, schema any) string {
	t.Helper()
	type marshaler interface{ MarshalJSON() ([]byte, error) }
	m, ok := schema.(marshaler)
	if !ok {
		t.Fatal("schema does not marshal to JSON")
	}
	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	return string(b)
}

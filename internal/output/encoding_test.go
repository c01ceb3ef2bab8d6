package output

import (
	"bytes"
	"testing"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		wantJSON string
	}{
		{
			name: "struct keys sorted",
			input: struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}{Name: "test", Count: 42},
			wantJSON: `{"count":42,"name":"test"}`,
		},
		{
			name: "omitempty zero values dropped",
			input: struct {
				Name  string  `json:"name"`
				Count int     `json:"count,omitempty"`
				Ptr   *string `json:"ptr,omitempty"`
			}{Name: "test"},
			wantJSON: `{"name":"test"}`,
		},
		{
			name: "empty slice kept, nil slice dropped",
			input: struct {
				Findings []string `json:"findings"`
				Warnings []string `json:"warnings"`
			}{Findings: []string{}},
			wantJSON: `{"findings":[]}`,
		},
		{
			name:     "map with sorted keys",
			input:    map[string]interface{}{"zebra": "last", "alpha": "first", "beta": "second"},
			wantJSON: `{"alpha":"first","beta":"second","zebra":"last"}`,
		},
		{
			name: "skipped and untagged fields",
			input: struct {
				Hidden string `json:"-"`
				Plain  string
				secret string
			}{Hidden: "x", Plain: "y", secret: "z"},
			wantJSON: `{"Plain":"y"}`,
		},
		{
			name:     "html not escaped",
			input:    map[string]string{"expr": "List[int] -> Dict<a>"},
			wantJSON: `{"expr":"List[int] -> Dict<a>"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	input := map[string]interface{}{
		"b": []int{3, 2, 1},
		"a": map[string]int{"y": 2, "x": 1},
		"c": struct {
			Z string `json:"z"`
			A string `json:"a"`
		}{Z: "last", A: "first"},
	}

	first, err := DeterministicEncode(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := DeterministicEncode(input)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("iteration %d: %s != %s", i, again, first)
		}
	}
	if want := `{"a":{"x":1,"y":2},"b":[3,2,1],"c":{"a":"first","z":"last"}}`; string(first) != want {
		t.Errorf("got %s, want %s", first, want)
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	got, err := DeterministicEncodeIndented(map[string]int{"b": 2, "a": 1}, "  ")
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"a\": 1,\n  \"b\": 2\n}\n"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

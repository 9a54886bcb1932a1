package flowcore

import (
	"encoding/json"
	"testing"
)

func TestDataTypeEqual(t *testing.T) {
	cases := []struct {
		name  string
		a, b  DataType
		equal bool
	}{
		{"same atomic", String, String, true},
		{"different atomic", String, Integer, false},
		{"same list", List(Integer), List(Integer), true},
		{"different list element", List(Integer), List(String), false},
		{"list vs atomic", List(String), String, false},
		{"same custom", CustomType("redis_ref"), CustomType("redis_ref"), true},
		{"different custom name", CustomType("a"), CustomType("b"), false},
		{"nested list", List(List(Integer)), List(List(Integer)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.equal {
				t.Errorf("%s.Equal(%s) = %v, want %v", tc.a, tc.b, got, tc.equal)
			}
		})
	}
}

func TestDataTypeJSONRoundTrip(t *testing.T) {
	cases := []DataType{
		String, Integer, Float, Boolean, JSON, Binary, Password,
		List(Integer),
		List(List(String)),
		CustomType("redis_ref"),
	}
	for _, dt := range cases {
		data, err := json.Marshal(dt)
		if err != nil {
			t.Fatalf("marshal %s: %v", dt, err)
		}
		var out DataType
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %s (%s): %v", dt, data, err)
		}
		if !out.Equal(dt) {
			t.Errorf("round trip %s -> %s -> %s", dt, data, out)
		}
	}
}

func TestDataTypeJSONShape(t *testing.T) {
	if data, _ := json.Marshal(String); string(data) != `"String"` {
		t.Errorf("atomic tag shape: got %s", data)
	}
	if data, _ := json.Marshal(List(Integer)); string(data) != `{"List":"Integer"}` {
		t.Errorf("list tag shape: got %s", data)
	}
	if data, _ := json.Marshal(CustomType("redis_ref")); string(data) != `{"Custom":"redis_ref"}` {
		t.Errorf("custom tag shape: got %s", data)
	}
}

func TestPortBuilders(t *testing.T) {
	p := NewPort("text", String).WithDescription("input text").Optional()
	if p.Name != "text" || p.Required {
		t.Fatalf("unexpected port: %+v", p)
	}
	if p.Description != "input text" {
		t.Fatalf("description not set: %+v", p)
	}
	req := NewPort("n", Integer)
	if !req.Required {
		t.Fatalf("expected NewPort to default Required=true")
	}
}

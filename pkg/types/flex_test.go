package types

import (
	"encoding/json"
	"testing"
)

func TestFlexIntUnmarshal(t *testing.T) {
	type payload struct {
		Stock FlexInt `json:"stock"`
	}

	cases := []struct {
		name    string
		body    string
		present bool
		null    bool
		valid   bool
		value   int
	}{
		{name: "missing", body: `{}`},
		{name: "null", body: `{"stock": null}`, present: true, null: true},
		{name: "number", body: `{"stock": 5}`, present: true, valid: true, value: 5},
		{name: "numeric string", body: `{"stock": " 12 "}`, present: true, valid: true, value: 12},
		{name: "fraction truncates", body: `{"stock": 3.9}`, present: true, valid: true, value: 3},
		{name: "negative", body: `{"stock": -2}`, present: true, valid: true, value: -2},
		{name: "garbage string", body: `{"stock": "lots"}`, present: true},
		{name: "boolean", body: `{"stock": true}`, present: true},
		{name: "empty string", body: `{"stock": ""}`, present: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			s := got.Stock
			if s.Present != tc.present || s.Null != tc.null || s.Valid != tc.valid || s.Value != tc.value {
				t.Fatalf("unexpected result %+v", s)
			}
		})
	}
}

func TestFlexDecimalUnmarshal(t *testing.T) {
	type payload struct {
		Price FlexDecimal `json:"price"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"price": 10.5}`), &got); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !got.Price.Valid || got.Price.Value.String() != "10.5" {
		t.Fatalf("unexpected price %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"price": "7.25"}`), &got); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if !got.Price.Valid || got.Price.Value.String() != "7.25" {
		t.Fatalf("unexpected price %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"price": "abc"}`), &got); err != nil {
		t.Fatalf("unmarshal garbage: %v", err)
	}
	if !got.Price.Present || got.Price.Valid {
		t.Fatalf("garbage should be present but invalid, got %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"price": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if got.Price.Set() {
		t.Fatalf("null price should not count as set")
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	type payload struct {
		BookID FlexString `json:"bookId"`
	}

	cases := []struct {
		name   string
		body   string
		value  string
		number bool
		truthy bool
	}{
		{name: "missing", body: `{}`},
		{name: "null", body: `{"bookId": null}`},
		{name: "number", body: `{"bookId": 1}`, value: "1", number: true, truthy: true},
		{name: "zero", body: `{"bookId": 0}`, value: "0", number: true},
		{name: "numeric string", body: `{"bookId": "1"}`, value: "1", truthy: true},
		{name: "zero string", body: `{"bookId": "0"}`, value: "0", truthy: true},
		{name: "uuid", body: `{"bookId": " 6f1c2a9e-1d2b-4f3c-9a8b-2c1d0e9f8a7b "}`, value: "6f1c2a9e-1d2b-4f3c-9a8b-2c1d0e9f8a7b", truthy: true},
		{name: "blank string", body: `{"bookId": "  "}`},
		{name: "boolean", body: `{"bookId": true}`},
		{name: "object", body: `{"bookId": {"id": 1}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			if err := json.Unmarshal([]byte(tc.body), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			s := got.BookID
			if s.Value != tc.value || s.Number != tc.number || s.Truthy() != tc.truthy {
				t.Fatalf("unexpected result %+v truthy=%v", s, s.Truthy())
			}
		})
	}
}

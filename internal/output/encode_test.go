package output

import (
	"bytes"
	"testing"
)

func TestDeterministicEncode(t *testing.T) {
	t.Run("identical inputs produce identical bytes", func(t *testing.T) {
		in := map[string]interface{}{
			"zeta":  1,
			"alpha": []string{"a", "b"},
			"score": 0.123456789,
		}
		first, err := DeterministicEncode(in)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 20; i++ {
			again, err := DeterministicEncode(in)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(first, again) {
				t.Fatalf("run %d diverged:\n%s\n%s", i, first, again)
			}
		}
	})

	t.Run("keys are sorted", func(t *testing.T) {
		got, err := DeterministicEncode(map[string]interface{}{"b": 1, "a": 2})
		if err != nil {
			t.Fatal(err)
		}
		want := `{"a":2,"b":1}`
		if string(got) != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("floats rounded to six places", func(t *testing.T) {
		got, err := DeterministicEncode(map[string]interface{}{"v": 0.1234567891})
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"v":0.123457}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("nil fields omitted", func(t *testing.T) {
		type payload struct {
			Name  string   `json:"name"`
			Items []string `json:"items"`
		}
		got, err := DeterministicEncode(payload{Name: "x"})
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"name":"x"}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("omitempty respected", func(t *testing.T) {
		type payload struct {
			Name  string `json:"name"`
			Count int    `json:"count,omitempty"`
		}
		got, err := DeterministicEncode(payload{Name: "x"})
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"name":"x"}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("html not escaped", func(t *testing.T) {
		got, err := DeterministicEncode(map[string]interface{}{"t": "<a> & </a>"})
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"t":"<a> & </a>"}` {
			t.Errorf("got %s", got)
		}
	})
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{1.0, "1"},
		{0.1234567, "0.123457"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := FormatFloat(tc.in); got != tc.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

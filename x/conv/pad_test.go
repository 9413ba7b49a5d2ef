package conv

import "testing"

func TestPadUint(t *testing.T) {
	cases := []struct {
		width int
		n     uint64
		want  string
	}{
		{4, 2024, "2024"},
		{2, 7, "07"},
		{6, 0, "000000"},
		{6, 1234, "001234"},
		{2, 123, "23"},
	}
	for _, c := range cases {
		buf := make([]byte, c.width)
		if got := string(PadUint(buf, c.n)); got != c.want {
			t.Fatalf("PadUint(%d, %d) = %q, want %q", c.width, c.n, got, c.want)
		}
	}
}

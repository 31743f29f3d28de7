package transport

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

const sampleStream = "{\"Brightness\":10,\"Mode\":\"All Off\",\"Light\":\"Off\"}\n" +
	"Blink Mode ON\r\n" +
	"\n" +
	"{\"Brightness\":99,\"Mode\":\"Red Only\",\"Light\":\"Off\"}\n" +
	"{\"Bright"

func TestLineFramerSplitsCompleteLines(t *testing.T) {
	var f LineFramer

	got := f.PushString("a\nb\n\nc")
	want := []string{"a", "b", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if f.Buffered() != 1 {
		t.Fatalf("expected 1 buffered byte, got %d", f.Buffered())
	}
}

func TestLineFramerKeepsFragmentAcrossPushes(t *testing.T) {
	var f LineFramer

	if got := f.PushString("{\"Brightness\":10,\"Mode\""); len(got) != 0 {
		t.Fatalf("expected no lines, got %q", got)
	}
	got := f.PushString(":\"All Off\",\"Light\":\"Off\"}\n{\"Bri")
	want := []string{"{\"Brightness\":10,\"Mode\":\"All Off\",\"Light\":\"Off\"}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	got = f.PushString("ghtness\":99,\"Mode\":\"Red Only\",\"Light\":\"Off\"}\n")
	want = []string{"{\"Brightness\":99,\"Mode\":\"Red Only\",\"Light\":\"Off\"}"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", f.Buffered())
	}
}

func TestLineFramerChunkingDoesNotChangeLines(t *testing.T) {
	var whole LineFramer
	want := whole.PushString(sampleStream)
	wantRest := whole.Flush()

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		var f LineFramer
		var got []string
		rest := sampleStream
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			got = append(got, f.PushString(rest[:n])...)
			rest = rest[n:]
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d: expected %q, got %q", round, want, got)
		}
		if tail := f.Flush(); tail != wantRest {
			t.Fatalf("round %d: expected remainder %q, got %q", round, wantRest, tail)
		}
	}
}

func TestLineFramerSplitAtDelimiter(t *testing.T) {
	var f LineFramer

	got := append(f.PushString("abc"), f.PushString("\n")...)
	got = append(got, f.PushString("def\n")...)
	want := []string{"abc", "def"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLineFramerFlush(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{name: "unterminated remainder", chunks: []string{"one\ntw", "o"}, want: "two"},
		{name: "terminated stream", chunks: []string{"one\n"}, want: ""},
		{name: "nothing pushed", want: ""},
	}

	for _, tc := range tests {
		var f LineFramer
		for _, chunk := range tc.chunks {
			f.PushString(chunk)
		}
		if got := f.Flush(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
		if f.Buffered() != 0 {
			t.Fatalf("%s: expected empty buffer after flush, got %d bytes", tc.name, f.Buffered())
		}
		if got := f.Flush(); got != "" {
			t.Fatalf("%s: expected second flush to be empty, got %q", tc.name, got)
		}
	}
}

func TestLineFramerLongLineWithoutDelimiterIsRetained(t *testing.T) {
	var f LineFramer
	long := strings.Repeat("x", 1<<16)

	for i := 0; i < 4; i++ {
		if got := f.PushString(long); len(got) != 0 {
			t.Fatalf("expected no lines, got %d", len(got))
		}
	}
	if f.Buffered() != 4*len(long) {
		t.Fatalf("expected %d buffered bytes, got %d", 4*len(long), f.Buffered())
	}
}

package chunkstore

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestPut_Validation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("f", 0, 0, []byte("x")); err == nil {
		t.Error("expected error for totalChunks=0")
	}
	if _, err := s.Put("f", 3, 3, []byte("x")); err == nil {
		t.Error("expected error for index == totalChunks")
	}
	if _, err := s.Put("f", -1, 3, []byte("x")); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestReassemble_OrderIndependent(t *testing.T) {
	// For any arrival order, output must be byte-identical to the original.
	const total = 8
	var want []byte
	chunks := make([][]byte, total)
	for i := range chunks {
		chunks[i] = []byte(fmt.Sprintf("chunk-%d-payload;", i))
		want = append(want, chunks[i]...)
	}

	for trial := 0; trial < 10; trial++ {
		s := newTestStore(t)
		order := rand.Perm(total)

		var complete int
		for _, i := range order {
			done, err := s.Put("video.mp4", i, total, chunks[i])
			if err != nil {
				t.Fatalf("Put(%d): %v", i, err)
			}
			if done {
				complete++
			}
		}
		if complete != 1 {
			t.Fatalf("completion reported %d times, want exactly 1 (order %v)", complete, order)
		}

		got, err := s.Reassemble("video.mp4", total)
		if err != nil {
			t.Fatalf("Reassemble: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("reassembled bytes differ for order %v", order)
		}
	}
}

func TestPut_DuplicateIdempotent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("f.wav", 0, 2, []byte("aa")); err != nil {
		t.Fatal(err)
	}
	// Retried upload of an already-received index with identical bytes.
	done, err := s.Put("f.wav", 0, 2, []byte("aa"))
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("duplicate of a non-final chunk must not report completion")
	}

	if done, _ := s.Put("f.wav", 1, 2, []byte("bb")); !done {
		t.Error("final chunk should complete the set")
	}

	got, err := s.Reassemble("f.wav", 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "aabb" {
		t.Errorf("reassembled %q, want %q", got, "aabb")
	}
}

func TestReassemble_Incomplete(t *testing.T) {
	s := newTestStore(t)
	s.Put("f.wav", 0, 3, []byte("a"))
	s.Put("f.wav", 2, 3, []byte("c"))

	_, err := s.Reassemble("f.wav", 3)
	if !errors.Is(err, ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
}

func TestReassemble_SecondCallNotFound(t *testing.T) {
	s := newTestStore(t)
	s.Put("f.wav", 0, 1, []byte("solo"))

	if _, err := s.Reassemble("f.wav", 1); err != nil {
		t.Fatalf("first Reassemble: %v", err)
	}
	_, err := s.Reassemble("f.wav", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second Reassemble err = %v, want ErrNotFound", err)
	}
}

func TestReassemble_UnknownFile(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Reassemble("nope", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPut_ConcurrentCompletesOnce(t *testing.T) {
	// 50 chunks uploaded in parallel in randomized order: the set
	// completes exactly once and reassembles byte-identically.
	const total = 50
	s := newTestStore(t)

	var want []byte
	chunks := make([][]byte, total)
	for i := range chunks {
		chunks[i] = bytes.Repeat([]byte{byte(i)}, 100)
		want = append(want, chunks[i]...)
	}

	order := rand.Perm(total)
	var completions atomic.Int64
	var wg sync.WaitGroup
	for _, i := range order {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done, err := s.Put("big.mkv", i, total, chunks[i])
			if err != nil {
				t.Errorf("Put(%d): %v", i, err)
			}
			if done {
				completions.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := completions.Load(); n != 1 {
		t.Errorf("completion reported %d times, want exactly 1", n)
	}

	got, err := s.Reassemble("big.mkv", total)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("concurrent upload reassembly differs from original bytes")
	}
}

func TestFileID(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":         "clip.mp4",
		"../../etc/passwd": "passwd",
		"my video (1).mov": "my_video__1_.mov",
		"  spaced.wav":     "spaced.wav",
		"":                 "_",
		"/":                "_",
	}
	for in, want := range cases {
		if got := FileID(in); got != want {
			t.Errorf("FileID(%q) = %q, want %q", in, got, want)
		}
	}
}

package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseUserID checks that arbitrary input never panics and that every
// accepted value round-trips through String unchanged.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("not-a-uuid")
	f.Add(uuid.Nil.String())
	f.Add(uuid.New().String())

	f.Fuzz(func(t *testing.T, s string) {
		id, err := ParseUserID(s)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Fatalf("ParseUserID(%q) accepted a nil ID", s)
		}
		reparsed, err := ParseUserID(id.String())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", id.String(), err)
		}
		if reparsed != id {
			t.Fatalf("round trip mismatch: %v != %v", reparsed, id)
		}
	})
}

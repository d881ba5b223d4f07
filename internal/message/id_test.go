package message

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"msg-1", 1, true},
		{"msg-42", 42, true},
		{"msg-999", 999, true},
		{"msg-007", 7, true},
		{"msg-1000", 0, false},
		{"msg-", 0, false},
		{"msg-abc", 0, false},
		{"1", 0, false},
		{"message-1", 0, false},
		{"msg-1x", 0, false},
		{"xmsg-1", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if tt.ok {
			if err != nil {
				t.Fatalf("ParseID(%q): unexpected error %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrMalformedID) {
			t.Fatalf("ParseID(%q): expected ErrMalformedID, got %v", tt.in, err)
		}
	}
}

func TestFormatIDRoundTrip(t *testing.T) {
	for _, key := range []int64{1, 12, 123, 999} {
		id := FormatID(key)
		got, err := ParseID(id)
		if err != nil {
			t.Fatalf("ParseID(FormatID(%d)): %v", key, err)
		}
		if got != key {
			t.Fatalf("round trip %d -> %s -> %d", key, id, got)
		}
	}
}

func TestSummaryProjection(t *testing.T) {
	sender := "AxelW"
	m := &Message{ID: "msg-7", Title: "T", Body: "B", Timestamp: 99, Sender: &sender}

	s := m.Summary()
	if s.ID != m.ID || s.Title != m.Title || s.Timestamp != m.Timestamp {
		t.Fatalf("projection mismatch: %+v vs %+v", s, m)
	}
	if s.Sender == nil || *s.Sender != sender {
		t.Fatalf("projection lost sender")
	}
}

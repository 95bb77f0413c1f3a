package timeslot

import (
	"errors"
	"fmt"
	"testing"
)

func TestTimeToSlot(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		err  bool
	}{
		{in: "00:00", want: 0},
		{in: "00:14", want: 0},
		{in: "00:15", want: 1},
		{in: "09:00", want: 36},
		{in: "14:00", want: 56},
		{in: "14:10", want: 56},
		{in: "23:45", want: 95},
		{in: "23:59", want: 95},
		{in: "24:00", err: true},
		{in: "9:99", err: true},
		{in: "noon", err: true},
		{in: "", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := TimeToSlot(tc.in)
			if tc.err {
				if !errors.Is(err, ErrInvalidTimeFormat) {
					t.Fatalf("TimeToSlot(%q) err = %v, want ErrInvalidTimeFormat", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TimeToSlot(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("TimeToSlot(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlotRoundTripWithinOneInterval(t *testing.T) {
	t.Parallel()

	// For every valid HH:MM, the slot start must be at or before the input
	// and less than one interval behind it.
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			in := fmt.Sprintf("%02d:%02d", h, m)
			slot, err := TimeToSlot(in)
			if err != nil {
				t.Fatalf("TimeToSlot(%q): %v", in, err)
			}
			minutes := h*60 + m
			start := SlotToMinutes(slot)
			if start > minutes || minutes >= start+SlotMinutes {
				t.Fatalf("slot %d of %q covers [%d,%d), input is %d minutes", slot, in, start, start+SlotMinutes, minutes)
			}
		}
	}
}

func TestSlotToTime(t *testing.T) {
	t.Parallel()

	if got := SlotToTime(0); got != "00:00" {
		t.Fatalf("SlotToTime(0) = %q", got)
	}
	if got := SlotToTime(56); got != "14:00" {
		t.Fatalf("SlotToTime(56) = %q", got)
	}
	if got := SlotToTime(95); got != "23:45" {
		t.Fatalf("SlotToTime(95) = %q", got)
	}
}

func TestIntervalsSpanned(t *testing.T) {
	t.Parallel()

	if got := IntervalsSpanned(40, 44, false); got != 4 {
		t.Fatalf("same-day span = %d, want 4", got)
	}
	if got := IntervalsSpanned(56, 36, true); got != 40 {
		t.Fatalf("overnight first-day span = %d, want 40", got)
	}
	if got := IntervalsSpanned(0, 0, true); got != SlotsPerDay {
		t.Fatalf("midnight overnight span = %d, want %d", got, SlotsPerDay)
	}
}

func TestExpandDates(t *testing.T) {
	t.Parallel()

	t.Run("three days inclusive", func(t *testing.T) {
		got, err := ExpandDates("2024-06-01", "2024-06-03")
		if err != nil {
			t.Fatalf("ExpandDates: %v", err)
		}
		want := []string{"2024-06-01", "2024-06-02", "2024-06-03"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("single day", func(t *testing.T) {
		got, err := ExpandDates("2024-07-01", "2024-07-01")
		if err != nil || len(got) != 1 || got[0] != "2024-07-01" {
			t.Fatalf("got %v, %v", got, err)
		}
	})

	t.Run("crosses month boundary", func(t *testing.T) {
		got, err := ExpandDates("2024-06-29", "2024-07-02")
		if err != nil {
			t.Fatalf("ExpandDates: %v", err)
		}
		if len(got) != 4 || got[1] != "2024-06-30" || got[2] != "2024-07-01" {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("reversed range rejected", func(t *testing.T) {
		if _, err := ExpandDates("2024-06-03", "2024-06-01"); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("err = %v, want ErrInvalidRange", err)
		}
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		if _, err := ExpandDates("01/06/2024", "2024-06-03"); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("err = %v, want ErrInvalidRange", err)
		}
	})
}

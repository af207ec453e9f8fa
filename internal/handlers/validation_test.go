package handlers

import "testing"

func TestParseLogValue(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"3", 3, true},
		{"2.5", 2.5, true},
		{"2,5", 2.5, true}, // запятая как десятичный разделитель
		{" 10 ", 10, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1000001", 0, false},
	}

	for _, tc := range cases {
		got, err := ParseLogValue(tc.input)
		if tc.ok && err != nil {
			t.Errorf("ParseLogValue(%q) error: %v", tc.input, err)
			continue
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseLogValue(%q) = %v, want error", tc.input, got)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseLogValue(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseTimes(t *testing.T) {
	times, err := ParseTimes("08:00, 14:00,21:30")
	if err != nil {
		t.Fatalf("ParseTimes: %v", err)
	}
	want := []string{"08:00", "14:00", "21:30"}
	if len(times) != len(want) {
		t.Fatalf("ParseTimes = %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("times[%d] = %q, want %q", i, times[i], want[i])
		}
	}
}

func TestParseTimesRejectsGarbage(t *testing.T) {
	for _, input := range []string{"8:00", "08.00", "24:00", "08:60", "08:00," + "09:00,10:00,11:00,12:00,13:00,14:00,15:00,16:00,17:00,18:00"} {
		if _, err := ParseTimes(input); err == nil {
			t.Errorf("ParseTimes(%q) must fail", input)
		}
	}
}

package knowledge

import "testing"

func TestParseAnswer(t *testing.T) {
	testCases := []struct {
		in   string
		want Answer
		ok   bool
	}{
		{"y", Yes, true},
		{"YES", Yes, true},
		{"1", Yes, true},
		{"2", Probably, true},
		{"?", DontKnow, true},
		{"3", DontKnow, true},
		{" probably not ", ProbablyNot, true},
		{"5", No, true},
		{"n", No, true},
		{"6", 0, false},
		{"maybe", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseAnswer(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Errorf("ParseAnswer(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestAnswer_Valid(t *testing.T) {
	for _, c := range Choices {
		if !c.Answer.Valid() {
			t.Errorf("expected %s to be valid", c.Label)
		}
	}
	if Answer(0.3).Valid() {
		t.Error("expected 0.3 to be invalid")
	}
	if Answer(0.3).String() != "Invalid" {
		t.Errorf("unexpected label %q", Answer(0.3).String())
	}
}

func TestResponses_Order(t *testing.T) {
	r := NewResponses()
	r.Set("superhero", Yes)
	r.Set("real", No)
	r.Set("superhero", Probably)

	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "superhero" || keys[1] != "real" {
		t.Errorf("expected question order, got %v", keys)
	}
	if a, _ := r.Get("superhero"); a != Probably {
		t.Errorf("expected re-answer to update value, got %v", a)
	}

	c := r.Clone()
	c.Set("red", Yes)
	if r.Has("red") {
		t.Error("clone must be independent")
	}

	var nilResp *Responses
	if nilResp.Len() != 0 || nilResp.Has("x") {
		t.Error("nil responses should behave as empty")
	}
}

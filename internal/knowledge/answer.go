package knowledge

import "strings"

// Answer is a user's reply to a trait question, on the same 0..1 scale as
// entity trait values.
type Answer float64

const (
	No          Answer = 0.0
	ProbablyNot Answer = 0.25
	DontKnow    Answer = 0.5
	Probably    Answer = 0.75
	Yes         Answer = 1.0
)

// Choice pairs an answer with its display label.
type Choice struct {
	Label  string
	Answer Answer
}

// Choices lists the accepted answers in the order they are offered.
var Choices = []Choice{
	{"Yes", Yes},
	{"Probably", Probably},
	{"Don't Know", DontKnow},
	{"Probably Not", ProbablyNot},
	{"No", No},
}

// Valid reports whether a is one of the five accepted answers.
func (a Answer) Valid() bool {
	for _, c := range Choices {
		if c.Answer == a {
			return true
		}
	}
	return false
}

func (a Answer) String() string {
	for _, c := range Choices {
		if c.Answer == a {
			return c.Label
		}
	}
	return "Invalid"
}

var answerAliases = map[string]Answer{
	"y": Yes, "yes": Yes,
	"p": Probably, "probably": Probably,
	"?": DontKnow, "d": DontKnow, "dk": DontKnow, "don't know": DontKnow, "dont know": DontKnow,
	"pn": ProbablyNot, "probably not": ProbablyNot,
	"n": No, "no": No,
}

// ParseAnswer maps a typed label ("y", "probably not", ...) or a 1-based
// choice number to an Answer.
func ParseAnswer(s string) (Answer, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := answerAliases[s]; ok {
		return a, true
	}
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(Choices) {
		return Choices[s[0]-'1'].Answer, true
	}
	return 0, false
}

package base

import "fmt"

// Classification is the quality tag of one move. Values are ordered by severity.
type Classification uint8

const (
	Brilliant Classification = iota
	Perfect
	Excellent
	Good
	Inaccuracy
	Mistake
	Blunder
)

var Classifications = []Classification{Brilliant, Perfect, Excellent, Good, Inaccuracy, Mistake, Blunder}

func (c Classification) String() string {
	switch c {
	case Brilliant:
		return "brilliant"
	case Perfect:
		return "perfect"
	case Excellent:
		return "excellent"
	case Good:
		return "good"
	case Inaccuracy:
		return "inaccuracy"
	case Mistake:
		return "mistake"
	case Blunder:
		return "blunder"
	default:
		return "invalid"
	}
}

func ParseClassification(s string) (Classification, error) {
	for _, c := range Classifications {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown classification %q", s)
}

// Glyph is the move annotation suffix used in move lists.
func (c Classification) Glyph() string {
	switch c {
	case Brilliant:
		return "!!"
	case Inaccuracy:
		return "?!"
	case Mistake:
		return "?"
	case Blunder:
		return "??"
	default:
		return ""
	}
}

// NAG is the PGN numeric annotation glyph, empty for unannotated tiers.
//
// $3 = !! (brilliant), $6 = ?! (inaccuracy), $2 = ? (mistake), $4 = ?? (blunder)
func (c Classification) NAG() string {
	switch c {
	case Brilliant:
		return "$3"
	case Inaccuracy:
		return "$6"
	case Mistake:
		return "$2"
	case Blunder:
		return "$4"
	default:
		return ""
	}
}

func (c Classification) MarshalText() ([]byte, error) {
	if c > Blunder {
		return nil, fmt.Errorf("invalid classification %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Classification) UnmarshalText(text []byte) error {
	v, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

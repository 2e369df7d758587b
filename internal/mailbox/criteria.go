package mailbox

import "fmt"

// CriteriaKind selects which messages a pass enumerates.
type CriteriaKind int

const (
	// CriteriaAll enumerates every message in the active folder.
	CriteriaAll CriteriaKind = iota
	// CriteriaUnseen enumerates messages without the \Seen flag.
	CriteriaUnseen
	// CriteriaRecent enumerates the last N messages of the folder.
	CriteriaRecent
)

// Criteria is the message-selection input for Enumerate.
type Criteria struct {
	Kind CriteriaKind
	N    int // message count, Recent only
}

func (c Criteria) String() string {
	switch c.Kind {
	case CriteriaAll:
		return "all"
	case CriteriaUnseen:
		return "unseen"
	case CriteriaRecent:
		return fmt.Sprintf("recent(%d)", c.N)
	}
	return fmt.Sprintf("criteria(%d)", int(c.Kind))
}

// ParseCriteria maps a CLI criteria word plus optional count to a Criteria.
func ParseCriteria(kind string, n int) (Criteria, error) {
	switch kind {
	case "all":
		return Criteria{Kind: CriteriaAll}, nil
	case "unseen":
		return Criteria{Kind: CriteriaUnseen}, nil
	case "recent":
		if n <= 0 {
			return Criteria{}, fmt.Errorf("recent criteria needs a positive count, got %d", n)
		}
		return Criteria{Kind: CriteriaRecent, N: n}, nil
	}
	return Criteria{}, fmt.Errorf("unknown criteria %q (want all, unseen or recent)", kind)
}

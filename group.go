package mockreg

import (
	"fmt"
	"strings"
)

// group holds the expectations for one ID in registration order.
type group[A, R any] struct {
	expectations []*Expectation[A, R]
}

func (g *group[A, R]) signature() string {
	return signatureOf[A, R]()
}

// match selects the first eligible expectation for args, checks its
// sequence and records the call. Callers must hold the registry lock.
func (g *group[A, R]) match(id ID, args A) (*Expectation[A, R], error) {
	var (
		pending, spent, rejected int
		reason                   string
	)
	for _, e := range g.expectations {
		switch e.state {
		case unconfigured:
			pending++
			continue
		case exhausted:
			spent++
			continue
		}
		if ok, msg := e.accepts(args); !ok {
			if rejected == 0 {
				reason = msg
			}
			rejected++
			continue
		}
		if e.seq != nil {
			if err := e.seq.check(id, e.seqPos); err != nil {
				return nil, err
			}
		}
		e.record()
		return e, nil
	}
	return nil, noMatch(id, describe(len(g.expectations), pending, spent, rejected, reason))
}

func describe(total, pending, spent, rejected int, reason string) string {
	if total == 0 {
		return "no expectations registered"
	}
	var parts []string
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d without a behaviour", pending))
	}
	if spent > 0 {
		parts = append(parts, fmt.Sprintf("%d exhausted", spent))
	}
	if rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected the arguments", rejected))
	}
	msg := fmt.Sprintf("%d expectations, %s", total, strings.Join(parts, ", "))
	if reason != "" {
		msg += "\n" + reason
	}
	return msg
}

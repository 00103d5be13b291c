package resilience

import "errors"

// Matcher reports whether an error belongs to a classification set. Use
// MatchError to match a sentinel by errors.Is, or MatchType to match a
// concrete error type by errors.As — Go's stand-ins for the source's
// exception-class assignability test.
type Matcher func(err error) bool

// MatchError returns a Matcher that is true when errors.Is(err, target).
func MatchError(target error) Matcher {
	return func(err error) bool { return errors.Is(err, target) }
}

// MatchType returns a Matcher that is true when err (or something in its
// chain) can be assigned to *E via errors.As — the Go analogue of "thrown
// exception is assignable to exception-parameter type".
func MatchType[E error]() Matcher {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// MatchAny returns a Matcher that matches every non-nil error. Used as the
// default applyOn/retryOn/failOn set when a strategy is not given an
// explicit classification.
func MatchAny() Matcher {
	return func(err error) bool { return err != nil }
}

func matchesAny(err error, set []Matcher) bool {
	if err == nil {
		return false
	}
	for _, m := range set {
		if m != nil && m(err) {
			return true
		}
	}
	return false
}

// Classifier decides whether an error should be skipped or acted on: given
// an applies set and a skips set, Classify checks SkipOn before ApplyOn
// ("skip beats apply"). When CauseChain is true, a failed top-level
// classification additionally walks err's unwrap chain, stopping at the
// first node that matches either set, again preferring skip.
type Classifier struct {
	ApplyOn    []Matcher
	SkipOn     []Matcher
	CauseChain bool
}

// Classify returns (skip, apply) for err. At most one of skip/apply is
// true. Neither being true means "no classification decision" — callers
// fall back to their own default (e.g. retry treats no classification as
// "do not retry", fallback treats it as "rethrow").
func (c Classifier) Classify(err error) (skip, apply bool) {
	if err == nil {
		return false, false
	}
	if s, a, ok := c.classifyNode(err); ok {
		return s, a
	}
	if !c.CauseChain {
		return false, false
	}
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		if s, a, ok := c.classifyNode(e); ok {
			return s, a
		}
	}
	return false, false
}

func (c Classifier) classifyNode(err error) (skip, apply, matched bool) {
	if matchesAny(err, c.SkipOn) {
		return true, false, true
	}
	if matchesAny(err, c.ApplyOn) {
		return false, true, true
	}
	return false, false, false
}

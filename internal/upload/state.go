package upload

import "shipcheck/internal/domain"

// state is the whole upload session as one value. Every transition goes
// through one of the reducers below; none of them touch anything but the
// value they are given.
//
// Invariants: verdict and errMsg are never both set; inFlight is true only
// between submitted and the matching settled.
type state struct {
	candidate *domain.Candidate
	preview   *domain.Preview
	language  domain.Language
	inFlight  bool
	verdict   *domain.Verdict
	errMsg    string
	failed    bool

	// epoch moves whenever the candidate or language changes, so a
	// settlement for an older request can be recognised.
	epoch uint64
}

func initialState(lang domain.Language) state {
	return state{language: lang}
}

func (s state) phase() domain.Phase {
	switch {
	case s.inFlight:
		return domain.PhaseSubmitting
	case s.verdict != nil:
		return domain.PhaseSucceeded
	case s.failed:
		return domain.PhaseFailed
	default:
		return domain.PhaseIdle
	}
}

// rejected records a selection that failed validation. The previous
// candidate and preview stay selected.
func rejected(s state, msg string) state {
	s.errMsg = msg
	s.verdict = nil
	s.failed = false
	return s
}

func selected(s state, c domain.Candidate, p domain.Preview) state {
	s.candidate = &c
	s.preview = &p
	s.errMsg = ""
	s.verdict = nil
	s.failed = false
	s.epoch++
	return s
}

func languageChanged(s state, lang domain.Language) state {
	if s.language == lang {
		return s
	}
	s.language = lang
	s.verdict = nil
	s.epoch++
	return s
}

func cleared(s state) state {
	s.candidate = nil
	s.preview = nil
	s.verdict = nil
	s.errMsg = ""
	s.failed = false
	s.epoch++
	return s
}

func submitted(s state) state {
	s.errMsg = ""
	s.verdict = nil
	s.failed = false
	s.inFlight = true
	return s
}

// settled applies the outcome of the request issued at epoch. A stale
// outcome only ends the in-flight period.
func settled(s state, epoch uint64, v domain.Verdict, err error) state {
	s.inFlight = false
	if epoch != s.epoch {
		return s
	}
	if err != nil {
		s.verdict = nil
		s.errMsg = domain.UserMessage(err)
		s.failed = true
		return s
	}
	s.verdict = &v
	s.errMsg = ""
	s.failed = false
	return s
}

func (s state) snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Phase:    s.phase(),
		Language: s.language,
		InFlight: s.inFlight,
		Error:    s.errMsg,
	}
	if s.candidate != nil {
		c := *s.candidate
		c.Content = nil
		snap.Candidate = &c
	}
	if s.preview != nil {
		p := *s.preview
		snap.Preview = &p
	}
	if s.verdict != nil {
		v := *s.verdict
		snap.Verdict = &v
	}
	return snap
}

package controller

import (
	"fmt"
	"strconv"
)

// ParsePreviewPorts parses the server's textual preview port list. The
// server replies with a Python-style literal, "[(port, serve, branch), ...]",
// possibly empty; the result is the first element of each tuple, in input
// order. Only the literal list/tuple/integer grammar is accepted; anything
// else fails with ConnectionReturnError naming the offending text.
func ParsePreviewPorts(text string) ([]int, error) {
	s := portScanner{input: text}
	ports, err := s.parseList()
	if err != nil {
		return nil, &ConnectionReturnError{Detail: fmt.Sprintf("cannot parse preview port list %q: %v", text, err)}
	}
	return ports, nil
}

// portScanner is a hand-rolled scanner for the port list literal. It is
// deliberately not a general expression evaluator.
type portScanner struct {
	input string
	pos   int
}

func (s *portScanner) parseList() ([]int, error) {
	if err := s.expect('['); err != nil {
		return nil, err
	}

	ports := []int{}
	s.skipSpace()
	if s.peek() == ']' {
		s.pos++
		return ports, s.expectEnd()
	}

	for {
		port, err := s.parseTuple()
		if err != nil {
			return nil, err
		}
		ports = append(ports, port)

		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		case ']':
			s.pos++
			return ports, s.expectEnd()
		default:
			return nil, s.errorf("expected ',' or ']'")
		}
	}
}

// parseTuple consumes one parenthesized tuple of integers and returns its
// first element. The tuple may have any arity of at least one; trailing
// elements are parsed for well-formedness but otherwise ignored. "(5)" is
// accepted as a one-tuple even though Python reads it as a plain int —
// stricter would buy nothing, the first element is all we keep.
func (s *portScanner) parseTuple() (int, error) {
	if err := s.expect('('); err != nil {
		return 0, err
	}

	first, err := s.parseInt()
	if err != nil {
		return 0, err
	}

	for {
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
			s.skipSpace()
			// Trailing comma, as in "(1,)".
			if s.peek() == ')' {
				s.pos++
				return first, nil
			}
			if _, err := s.parseInt(); err != nil {
				return 0, err
			}
		case ')':
			s.pos++
			return first, nil
		default:
			return 0, s.errorf("expected ',' or ')'")
		}
	}
}

func (s *portScanner) parseInt() (int, error) {
	s.skipSpace()
	start := s.pos
	if s.peek() == '-' || s.peek() == '+' {
		s.pos++
	}
	for s.pos < len(s.input) && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.Atoi(s.input[start:s.pos])
	if err != nil {
		s.pos = start
		return 0, s.errorf("expected an integer")
	}
	return n, nil
}

func (s *portScanner) expect(c byte) error {
	s.skipSpace()
	if s.peek() != c {
		return s.errorf("expected %q", c)
	}
	s.pos++
	return nil
}

// expectEnd requires that nothing but whitespace follows the list.
func (s *portScanner) expectEnd() error {
	s.skipSpace()
	if s.pos != len(s.input) {
		return s.errorf("trailing data")
	}
	return nil
}

func (s *portScanner) skipSpace() {
	for s.pos < len(s.input) && (s.input[s.pos] == ' ' || s.input[s.pos] == '\t' || s.input[s.pos] == '\n') {
		s.pos++
	}
}

func (s *portScanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

func (s *portScanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%s at offset %d", fmt.Sprintf(format, args...), s.pos)
}

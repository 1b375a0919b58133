package wire

import (
	"strings"
)

type matchState int

const (
	matchInvalid matchState = iota
	matchNeedMore
	matchComplete
)

// Parser splits a possibly streamed message into prose and card segments.
// A card is emitted only once fully closed. Malformed markup is kept as prose,
// and an instance still open when Close is called becomes prose too.
type Parser struct {
	segments []Segment
	prose    strings.Builder
	pending  string
	closed   bool
}

func NewParser() *Parser {
	return &Parser{}
}

// Write feeds the next chunk. It never fails; the signature matches io.Writer.
func (p *Parser) Write(chunk []byte) (int, error) {
	p.WriteString(string(chunk))
	return len(chunk), nil
}

func (p *Parser) WriteString(chunk string) {
	if p.closed {
		return
	}
	p.pending += chunk
	p.scan()
}

// Close flushes everything still pending as prose.
func (p *Parser) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.scan()
	p.prose.WriteString(p.pending)
	p.pending = ""
	p.flushProse()
	return nil
}

// Segments returns the segments recognized so far. Before Close it excludes
// the trailing text that may still turn into a card.
func (p *Parser) Segments() []Segment {
	out := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(out, p.segments)
	if text := p.prose.String(); strings.TrimSpace(text) != "" {
		out = append(out, Segment{Kind: KindProse, Text: text})
	}
	return out
}

// Pending is the unconsumed tail that may still complete a card.
func (p *Parser) Pending() string {
	return p.pending
}

// Parse is the one-shot form of Parser.
func Parse(text string) []Segment {
	p := NewParser()
	p.WriteString(text)
	_ = p.Close()
	return p.Segments()
}

func (p *Parser) scan() {
	for {
		i := strings.IndexByte(p.pending, '<')
		if i < 0 {
			p.prose.WriteString(p.pending)
			p.pending = ""
			return
		}

		p.prose.WriteString(p.pending[:i])
		p.pending = p.pending[i:]

		segment, n, state := matchCard(p.pending)
		if state == matchNeedMore && p.closed {
			state = matchInvalid
		}

		switch state {
		case matchComplete:
			p.flushProse()
			p.segments = append(p.segments, segment)
			p.pending = p.pending[n:]
		case matchNeedMore:
			return
		default:
			p.prose.WriteByte('<')
			p.pending = p.pending[1:]
		}
	}
}

func (p *Parser) flushProse() {
	text := p.prose.String()
	p.prose.Reset()
	if strings.TrimSpace(text) == "" {
		return
	}
	p.segments = append(p.segments, Segment{Kind: KindProse, Text: text})
}

// matchCard matches one card instance at the start of s.
func matchCard(s string) (Segment, int, matchState) {
	for _, card := range []struct {
		tag    string
		fields []string
	}{
		{tag: TagApplication, fields: ApplicationFields},
		{tag: TagJob, fields: JobFields},
	} {
		values, n, state := matchInstance(s, card.tag, card.fields)
		switch state {
		case matchComplete:
			if card.tag == TagApplication {
				return Segment{Kind: KindApplication, Application: applicationCard(values)}, n, state
			}
			return Segment{Kind: KindJob, Job: jobCard(values)}, n, state
		case matchNeedMore:
			return Segment{}, 0, state
		}
	}
	return Segment{}, 0, matchInvalid
}

func matchInstance(s, tag string, fields []string) ([]string, int, matchState) {
	pos, state := expect(s, 0, "<"+tag+">")
	if state != matchComplete {
		return nil, 0, state
	}

	values := make([]string, 0, len(fields))
	for _, field := range fields {
		if pos, state = skipSpace(s, pos); state != matchComplete {
			return nil, 0, state
		}
		if pos, state = expect(s, pos, "<"+field+">"); state != matchComplete {
			return nil, 0, state
		}

		end := strings.IndexByte(s[pos:], '<')
		if end < 0 {
			return nil, 0, matchNeedMore
		}
		value := s[pos : pos+end]
		pos += end

		if pos, state = expect(s, pos, "</"+field+">"); state != matchComplete {
			return nil, 0, state
		}
		values = append(values, strings.TrimSpace(value))
	}

	if pos, state = skipSpace(s, pos); state != matchComplete {
		return nil, 0, state
	}
	if pos, state = expect(s, pos, "</"+tag+">"); state != matchComplete {
		return nil, 0, state
	}
	return values, pos, matchComplete
}

// expect matches token at s[pos:]; a truncated but consistent prefix needs more input.
func expect(s string, pos int, token string) (int, matchState) {
	rest := s[pos:]
	if strings.HasPrefix(rest, token) {
		return pos + len(token), matchComplete
	}
	if len(rest) < len(token) && strings.HasPrefix(token, rest) {
		return pos, matchNeedMore
	}
	return pos, matchInvalid
}

func skipSpace(s string, pos int) (int, matchState) {
	for pos < len(s) {
		switch s[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos, matchComplete
		}
	}
	return pos, matchNeedMore
}

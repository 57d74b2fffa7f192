package conversation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const fallbackAnswer = "Sorry, I didn't understand."

// RawCall is one model-requested function call before classification.
type RawCall struct {
	Name string
	Args map[string]any
}

// ModelReply is the interpreted body of one model response.
type ModelReply struct {
	Answer  string
	Summary string
	Intent  string
	Calls   []RawCall
}

// ParseModelReply decodes the model's JSON body. A missing answer falls back
// to a fixed string; a body that is not a JSON object is an error the caller
// degrades on.
func ParseModelReply(content string) (ModelReply, error) {
	var body struct {
		Answer       string          `json:"answer"`
		Summary      string          `json:"summary"`
		Intent       string          `json:"intent"`
		FunctionCall json.RawMessage `json:"function_call"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &body); err != nil {
		return ModelReply{}, fmt.Errorf("conversation: model reply is not valid JSON: %w", err)
	}
	reply := ModelReply{
		Answer:  body.Answer,
		Summary: body.Summary,
		Intent:  body.Intent,
		Calls:   parseFunctionCalls(body.FunctionCall),
	}
	if reply.Answer == "" {
		reply.Answer = fallbackAnswer
	}
	return reply, nil
}

// parseFunctionCalls accepts the preferred JSON-array form
// [{"name": "...", "args": {...}}, ...] and, for older prompts, a single
// call-expression string with multiple calls joined by "),". Unparsable
// pieces are skipped without aborting the rest.
func parseFunctionCalls(raw json.RawMessage) []RawCall {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil
	}

	var structured []struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil {
		calls := make([]RawCall, 0, len(structured))
		for _, c := range structured {
			if c.Name == "" {
				continue
			}
			args := c.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, RawCall{Name: c.Name, Args: args})
		}
		return calls
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil
	}
	return parseLegacyCalls(legacy)
}

// parseLegacyCalls splits a serialized call string on the literal "),"
// delimiter, restoring the stripped ")" on every piece but the last. The
// delimiter is ambiguous when a string argument contains "),"; such input
// produces malformed pieces which are then skipped by the parser.
func parseLegacyCalls(s string) []RawCall {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var calls []RawCall
	for _, piece := range strings.Split(s, "),") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if !strings.HasSuffix(piece, ")") {
			piece += ")"
		}
		if call, ok := parseCallExpression(piece); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// parseCallExpression parses `name(key=literal, ...)`. Only keyword arguments
// with literal values (numbers, strings, booleans, none, nested lists and
// dicts) are accepted; anything else fails the whole expression.
func parseCallExpression(s string) (RawCall, bool) {
	p := &exprParser{src: s}
	p.skipSpace()
	name, ok := p.ident()
	if !ok {
		return RawCall{}, false
	}
	p.skipSpace()
	if !p.consume('(') {
		return RawCall{}, false
	}
	args := map[string]any{}
	p.skipSpace()
	if !p.consume(')') {
		for {
			p.skipSpace()
			key, ok := p.ident()
			if !ok {
				return RawCall{}, false
			}
			p.skipSpace()
			if !p.consume('=') {
				return RawCall{}, false
			}
			p.skipSpace()
			val, ok := p.literal()
			if !ok {
				return RawCall{}, false
			}
			args[key] = val
			p.skipSpace()
			if p.consume(',') {
				continue
			}
			if p.consume(')') {
				break
			}
			return RawCall{}, false
		}
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return RawCall{}, false
	}
	return RawCall{Name: name, Args: args}, true
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *exprParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) ident() (string, bool) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", false
	}
	return p.src[start:p.pos], true
}

func (p *exprParser) literal() (any, bool) {
	if p.pos >= len(p.src) {
		return nil, false
	}
	switch c := p.src[p.pos]; {
	case c == '\'' || c == '"':
		return p.stringLit(c)
	case c == '[':
		return p.listLit()
	case c == '{':
		return p.dictLit()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.numberLit()
	default:
		return p.wordLit()
	}
}

func (p *exprParser) stringLit(quote byte) (any, bool) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			next := p.src[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			p.pos += 2
			continue
		}
		if c == quote {
			p.pos++
			return b.String(), true
		}
		b.WriteByte(c)
		p.pos++
	}
	return nil, false // unterminated
}

func (p *exprParser) numberLit() (any, bool) {
	start := p.pos
	_ = p.consume('-')
	digits := false
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits = true
	}
	isFloat := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			digits = true
		}
	}
	if !digits {
		return nil, false
	}
	raw := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func (p *exprParser) wordLit() (any, bool) {
	word, ok := p.ident()
	if !ok {
		return nil, false
	}
	switch word {
	case "True", "true":
		return true, true
	case "False", "false":
		return false, true
	case "None", "none", "null":
		return nil, true
	default:
		// bare identifiers are expressions, not literals
		return nil, false
	}
}

func (p *exprParser) listLit() (any, bool) {
	p.pos++ // '['
	items := []any{}
	p.skipSpace()
	if p.consume(']') {
		return items, true
	}
	for {
		p.skipSpace()
		val, ok := p.literal()
		if !ok {
			return nil, false
		}
		items = append(items, val)
		p.skipSpace()
		if p.consume(',') {
			p.skipSpace()
			if p.consume(']') {
				return items, true
			}
			continue
		}
		if p.consume(']') {
			return items, true
		}
		return nil, false
	}
}

func (p *exprParser) dictLit() (any, bool) {
	p.pos++ // '{'
	items := map[string]any{}
	p.skipSpace()
	if p.consume('}') {
		return items, true
	}
	for {
		p.skipSpace()
		key, ok := p.literal()
		if !ok {
			return nil, false
		}
		keyStr, ok := key.(string)
		if !ok {
			keyStr = fmt.Sprintf("%v", key)
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, false
		}
		p.skipSpace()
		val, ok := p.literal()
		if !ok {
			return nil, false
		}
		items[keyStr] = val
		p.skipSpace()
		if p.consume(',') {
			p.skipSpace()
			if p.consume('}') {
				return items, true
			}
			continue
		}
		if p.consume('}') {
			return items, true
		}
		return nil, false
	}
}

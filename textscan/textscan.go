package textscan

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var (
	plainLexer   *lexmachine.Lexer
	commentLexer *lexmachine.Lexer
)

func init() {
	plainLexer = newLexer(false)
	commentLexer = newLexer(true)
}

func newLexer(comments bool) *lexmachine.Lexer {
	lexer := lexmachine.NewLexer()
	if comments {
		lexer.Add([]byte(`#[^\n]*`), getToken(TOKEN_COMMENT))
	}
	// literal whitespace bytes, the file formats split on them only
	lexer.Add([]byte("(\r\n|\n|\r)"), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte("[ \t]+"), skip)
	lexer.Add([]byte("[^ \t\r\n]+"), getToken(TOKEN_WORD))
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
	return lexer
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// Token is a single whitespace separated word with its 1-based position.
type Token struct {
	Type   int
	Text   string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Type == TOKEN_NEWLINE {
		return fmt.Sprintf("newline at %d:%d", t.Line, t.Column)
	}
	return fmt.Sprintf("%q at %d:%d", t.Text, t.Line, t.Column)
}

type Options struct {
	// Newlines keeps line breaks as TOKEN_NEWLINE tokens
	Newlines bool
	// Comments drops '#' comments up to the end of line
	Comments bool
}

// Tokenize splits text into words. Comments are never returned.
func Tokenize(text []byte, opts Options) ([]Token, error) {
	lexer := plainLexer
	if opts.Comments {
		lexer = commentLexer
	}

	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]Token, 0, len(text)/4)
	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)

		switch tok.Type {
		case TOKEN_COMMENT:
			continue
		case TOKEN_NEWLINE:
			if !opts.Newlines {
				continue
			}
		}
		result = append(result, Token{
			Type:   tok.Type,
			Text:   string(tok.Lexeme),
			Line:   tok.StartLine,
			Column: tok.StartColumn,
		})
	}

	return result, nil
}

// Scanner walks a token slice, remembering the last consumed token for
// end of input errors.
type Scanner struct {
	tokens []Token
	pos    int
	last   Token
}

func NewScanner(text []byte, opts Options) (*Scanner, error) {
	tokens, err := Tokenize(text, opts)
	if err != nil {
		return nil, err
	}
	return &Scanner{tokens: tokens, last: Token{Line: 1, Column: 1}}, nil
}

func (s *Scanner) Next() (Token, bool) {
	if s.pos >= len(s.tokens) {
		return s.last, false
	}
	s.last = s.tokens[s.pos]
	s.pos++
	return s.last, true
}

func (s *Scanner) Peek() (Token, bool) {
	if s.pos >= len(s.tokens) {
		return s.last, false
	}
	return s.tokens[s.pos], true
}

// Last returns the most recently consumed token, or the start of input.
func (s *Scanner) Last() Token {
	return s.last
}

func (s *Scanner) Remaining() int {
	return len(s.tokens) - s.pos
}

// SkipNewlines consumes consecutive line breaks.
func (s *Scanner) SkipNewlines() {
	for s.pos < len(s.tokens) && s.tokens[s.pos].Type == TOKEN_NEWLINE {
		s.last = s.tokens[s.pos]
		s.pos++
	}
}

// Line consumes tokens up to the next line break (which is also consumed)
// and returns the words in between. ok is false at end of input.
func (s *Scanner) Line() ([]Token, bool) {
	s.SkipNewlines()
	if s.pos >= len(s.tokens) {
		return nil, false
	}
	start := s.pos
	for s.pos < len(s.tokens) && s.tokens[s.pos].Type != TOKEN_NEWLINE {
		s.pos++
	}
	line := s.tokens[start:s.pos]
	s.last = line[len(line)-1]
	if s.pos < len(s.tokens) {
		s.pos++
	}
	return line, true
}

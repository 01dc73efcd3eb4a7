package input

import "github.com/aretw0/keyseq/pkg/domain"

// NormalizeKey converts a keyboard press into a token.
// The produced key becomes the symbol and the physical code its alternate.
func NormalizeKey(ev domain.KeyEvent) domain.Token {
	tok := domain.Token{Symbol: ev.Key, Alt: ev.Code, Source: domain.SourceKeyboard}
	if tok.Symbol == "" {
		tok.Symbol, tok.Alt = ev.Code, ""
	}
	if tok.Alt == tok.Symbol {
		tok.Alt = ""
	}
	return tok
}

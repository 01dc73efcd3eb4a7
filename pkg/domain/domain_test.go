package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_Validate(t *testing.T) {
	assert.NoError(t, domain.KonamiCode.Validate())
	assert.ErrorIs(t, domain.Sequence{}.Validate(), domain.ErrEmptySequence)
	assert.ErrorIs(t, domain.Sequence{"Up", " "}.Validate(), domain.ErrEmptySymbol)
}

func TestPresets(t *testing.T) {
	assert.Len(t, domain.KonamiCode, 10)
	assert.Equal(t, append(domain.KonamiCode.Clone(), "Enter"), domain.KonamiCodeWithEnter)
	assert.Len(t, domain.GamepadKonamiCode, 10)
	assert.Len(t, domain.StandardButtonMap, domain.StandardButtonCount)
	assert.Equal(t, domain.GamepadHome, domain.StandardButtonMap[16])

	def, ok := domain.Preset(" Konami ")
	require.True(t, ok)
	def.Keys[0] = "Mutated"
	assert.Equal(t, "ArrowUp", domain.KonamiCode[0])

	_, ok = domain.Preset("missing")
	assert.False(t, ok)
}

func TestDefinition_Validate(t *testing.T) {
	assert.Error(t, domain.Definition{Keys: domain.KonamiCode}.Validate())
	assert.ErrorIs(t, domain.Definition{Name: "x"}.Validate(), domain.ErrEmptySequence)
	assert.NoError(t, domain.Definition{Name: "x", Keys: domain.Sequence{"a"}}.Validate())
	assert.ErrorIs(t, domain.Definition{Name: "../etc", Keys: domain.Sequence{"a"}}.Validate(), domain.ErrInvalidName)
	assert.ErrorIs(t, domain.Definition{Name: "a b", Keys: domain.Sequence{"a"}}.Validate(), domain.ErrInvalidName)
}

func TestToken_Matches(t *testing.T) {
	tok := domain.Token{Symbol: "b", Alt: "KeyB"}
	assert.True(t, tok.Matches("b"))
	assert.True(t, tok.Matches("KeyB"))
	assert.False(t, tok.Matches("KeyA"))
	assert.False(t, domain.Token{Symbol: "b"}.Matches(""))
}

func TestCallbacks_Dispatch(t *testing.T) {
	var got []string
	cb := domain.Callbacks{
		OnMatch:    func() { got = append(got, "match") },
		OnProgress: func(p, total int) { got = append(got, "progress") },
		OnInput:    func(symbol string, src domain.Source) { got = append(got, "input:"+symbol+":"+string(src)) },
	}

	cb.Dispatch(&domain.Event{Type: domain.EventInput, Symbol: "a", Source: domain.SourceKeyboard})
	cb.Dispatch(&domain.Event{Type: domain.EventProgress})
	cb.Dispatch(&domain.Event{Type: domain.EventMismatch}) // nil callback skipped
	cb.Dispatch(&domain.Event{Type: domain.EventMatch})

	assert.Equal(t, []string{"input:a:keyboard", "progress", "match"}, got)
}

func TestLifecycleHooks_Fire(t *testing.T) {
	var types []domain.EventType
	hooks := domain.HooksFunc(func(ctx context.Context, e *domain.Event) {
		types = append(types, e.Type)
	})
	for _, typ := range []domain.EventType{domain.EventStart, domain.EventTimeout, domain.EventReset, domain.EventStop} {
		hooks.Fire(context.Background(), &domain.Event{Type: typ})
	}
	assert.Equal(t, []domain.EventType{domain.EventStart, domain.EventTimeout, domain.EventReset, domain.EventStop}, types)

	assert.NotPanics(t, func() {
		domain.LifecycleHooks{}.Fire(context.Background(), &domain.Event{Type: domain.EventMatch})
	})
}

func TestState_Next(t *testing.T) {
	s := domain.State{Sequence: domain.Sequence{"a", "b"}, Position: 1, Total: 2}
	assert.True(t, s.Armed())
	assert.Equal(t, "b", s.Next())
	s.Position = 2
	assert.Empty(t, s.Next())
}

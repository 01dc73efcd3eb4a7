package input_test

import (
	"testing"

	"github.com/aretw0/keyseq/internal/testutils"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/stretchr/testify/assert"
)

func symbols(tokens []domain.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Symbol)
	}
	return out
}

func TestEdgeDetector_HeldButtonEmitsOnce(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)

	var all []domain.Token
	for i := 0; i < 3; i++ {
		all = append(all, d.Detect([]domain.Gamepad{testutils.Pad(0, 17, domain.ButtonA)})...)
	}

	assert.Equal(t, []string{domain.GamepadA}, symbols(all))
	assert.Equal(t, domain.SourceGamepad, all[0].Source)
	assert.Empty(t, all[0].Alt)
}

func TestEdgeDetector_ReleaseThenPress(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)

	assert.Len(t, d.Detect([]domain.Gamepad{testutils.Pad(0, 17, domain.ButtonUp)}), 1)
	assert.Empty(t, d.Detect([]domain.Gamepad{testutils.Pad(0, 17)}))
	assert.Equal(t, []string{domain.GamepadUp}, symbols(d.Detect([]domain.Gamepad{testutils.Pad(0, 17, domain.ButtonUp)})))
}

func TestEdgeDetector_AnalogThreshold(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)
	pad := testutils.Pad(0, 17)

	pad.Buttons[domain.ButtonLT] = domain.Button{Value: 0.5}
	assert.Empty(t, d.Detect([]domain.Gamepad{pad}))

	pad.Buttons[domain.ButtonLT] = domain.Button{Value: 0.51}
	assert.Equal(t, []string{domain.GamepadLT}, symbols(d.Detect([]domain.Gamepad{pad})))
}

func TestEdgeDetector_ButtonCountChangeReinitializes(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)

	d.Detect([]domain.Gamepad{testutils.Pad(0, 17, domain.ButtonA)})
	// A different device on the same index with A still held counts as a new press.
	got := d.Detect([]domain.Gamepad{testutils.Pad(0, 16, domain.ButtonA)})
	assert.Equal(t, []string{domain.GamepadA}, symbols(got))
}

func TestEdgeDetector_UnmappedIndices(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)

	assert.NotPanics(t, func() {
		got := d.Detect([]domain.Gamepad{testutils.Pad(0, 20, 18, 19, domain.ButtonB)})
		assert.Equal(t, []string{domain.GamepadB}, symbols(got))
	})

	sparse := input.NewEdgeDetector([]string{"Fire", ""}, 0)
	assert.Equal(t, []string{"Fire"}, symbols(sparse.Detect([]domain.Gamepad{testutils.Pad(0, 2, 0, 1)})))
}

func TestEdgeDetector_MultiplePadsMerge(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)

	got := d.Detect([]domain.Gamepad{
		testutils.Pad(0, 17, domain.ButtonUp),
		testutils.Pad(1, 17, domain.ButtonUp),
	})
	assert.Equal(t, []string{domain.GamepadUp, domain.GamepadUp}, symbols(got))
}

func TestEdgeDetector_DisconnectedSkipped(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)
	pad := testutils.Pad(0, 17, domain.ButtonA)
	pad.Connected = false

	assert.Empty(t, d.Detect([]domain.Gamepad{pad}))
}

func TestEdgeDetector_Forget(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0)
	held := []domain.Gamepad{testutils.Pad(0, 17, domain.ButtonA)}

	d.Detect(held)
	d.Forget()
	assert.Len(t, d.Detect(held), 1)
}

func TestEdgeDetector_CustomThreshold(t *testing.T) {
	d := input.NewEdgeDetector(nil, 0.9)
	pad := testutils.Pad(0, 17)
	pad.Buttons[domain.ButtonRT] = domain.Button{Value: 0.8}

	assert.Empty(t, d.Detect([]domain.Gamepad{pad}))
	assert.True(t, d.Pressed(domain.Button{Value: 0.95}))
}

/*
Package keyseq detects ordered key sequences, such as the Konami code, typed
on a keyboard or entered on a gamepad within a time budget.

A Listener reduces raw device input to tokens, feeds them to a small state
machine and reports each step through callbacks: progress, match, mismatch,
timeout and raw input.

# Concept

Keyboard presses are pushed by a ports.KeyboardSource. Gamepads are polled
once per frame and an edge detector turns the snapshots into button-down
tokens. Both streams feed the same matcher, so a sequence may mix keys and
buttons.

The timeout is a sliding window: every correct input restarts it. A wrong
input during an attempt resets it, and if that same input is the first symbol
of the sequence it immediately opens a new attempt.

# Usage

	kb := input.NewPushKeyboard()

	l, err := keyseq.Listen(domain.KonamiCode, func() {
		fmt.Println("cheat unlocked")
	},
		keyseq.WithKeyboard(kb),
		keyseq.WithTimeout(2*time.Second),
		keyseq.WithOnProgress(func(pos, total int) {
			fmt.Printf("%d/%d\n", pos, total)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Destroy()

Adapters under pkg/adapters provide a raw terminal keyboard, Linux gamepads,
sequence stores (memory, file, Redis), an HTTP API and an MCP server.
*/
package keyseq

package domain

// Gamepad button symbols.
const (
	GamepadA     = "GamepadA"
	GamepadB     = "GamepadB"
	GamepadX     = "GamepadX"
	GamepadY     = "GamepadY"
	GamepadLB    = "GamepadLB"
	GamepadRB    = "GamepadRB"
	GamepadLT    = "GamepadLT"
	GamepadRT    = "GamepadRT"
	GamepadBack  = "GamepadBack"
	GamepadStart = "GamepadStart"
	GamepadLS    = "GamepadLS"
	GamepadRS    = "GamepadRS"
	GamepadUp    = "GamepadUp"
	GamepadDown  = "GamepadDown"
	GamepadLeft  = "GamepadLeft"
	GamepadRight = "GamepadRight"
	GamepadHome  = "GamepadHome"
)

// Standard gamepad button indices.
const (
	ButtonA = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonLT
	ButtonRT
	ButtonBack
	ButtonStart
	ButtonLS
	ButtonRS
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonHome

	// StandardButtonCount is the number of buttons in the standard layout.
	StandardButtonCount
)

// DefaultPressThreshold is the analog value above which a button counts as pressed.
const DefaultPressThreshold = 0.5

// StandardButtonMap maps standard button indices to symbols.
var StandardButtonMap = []string{
	ButtonA:     GamepadA,
	ButtonB:     GamepadB,
	ButtonX:     GamepadX,
	ButtonY:     GamepadY,
	ButtonLB:    GamepadLB,
	ButtonRB:    GamepadRB,
	ButtonLT:    GamepadLT,
	ButtonRT:    GamepadRT,
	ButtonBack:  GamepadBack,
	ButtonStart: GamepadStart,
	ButtonLS:    GamepadLS,
	ButtonRS:    GamepadRS,
	ButtonUp:    GamepadUp,
	ButtonDown:  GamepadDown,
	ButtonLeft:  GamepadLeft,
	ButtonRight: GamepadRight,
	ButtonHome:  GamepadHome,
}

package entities

// Mobile/desktop breakpoint and the card column width used to derive how
// many cards fit on screen.
const (
	mobileBreakpointPx = 768
	cardColumnWidthPx  = 320
)

// ScreenClass is the coarse device class reported to the agent.
type ScreenClass string

const (
	ScreenMobile  ScreenClass = "mobile"
	ScreenDesktop ScreenClass = "desktop"
)

// Viewport is the current drawable area in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Class returns the screen class for the viewport width.
func (v Viewport) Class() ScreenClass {
	if v.Width < mobileBreakpointPx {
		return ScreenMobile
	}
	return ScreenDesktop
}

// Density returns the layout density hint for the viewport.
func (v Viewport) Density() string {
	if v.Class() == ScreenMobile {
		return "compact"
	}
	return "comfortable"
}

// MaxVisibleCards derives how many flashcards fit side by side. Mobile
// always shows one.
func (v Viewport) MaxVisibleCards() int {
	if v.Class() == ScreenMobile {
		return 1
	}
	n := v.Width / cardColumnWidthPx
	if n < 1 {
		n = 1
	}
	return n
}

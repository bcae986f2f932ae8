package engine

// Display receives the showText and showMessage side channel. Rendering is
// entirely the caller's concern; the interpreter only forwards literal text.
type Display interface {
	ShowText(text string)
	ShowMessage(text string)
}

type discardDisplay struct{}

func (discardDisplay) ShowText(string)    {}
func (discardDisplay) ShowMessage(string) {}

// DisplayFuncs adapts plain functions to Display. Nil fields discard output.
type DisplayFuncs struct {
	Text    func(string)
	Message func(string)
}

func (d DisplayFuncs) ShowText(text string) {
	if d.Text != nil {
		d.Text(text)
	}
}

func (d DisplayFuncs) ShowMessage(text string) {
	if d.Message != nil {
		d.Message(text)
	}
}

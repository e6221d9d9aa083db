package renderertest

// Surface is a window of fixed size that closes after a number of polls.
type Surface struct {
	Width, Height uint32
	// CloseAfter closes the surface after that many PollEvents calls. Zero
	// keeps it open.
	CloseAfter int
	Polls      int
}

func NewSurface(width, height uint32) *Surface {
	return &Surface{Width: width, Height: height}
}

func (s *Surface) FramebufferSize() (uint32, uint32) {
	return s.Width, s.Height
}

func (s *Surface) ShouldClose() bool {
	return s.CloseAfter > 0 && s.Polls >= s.CloseAfter
}

func (s *Surface) PollEvents() {
	s.Polls++
}

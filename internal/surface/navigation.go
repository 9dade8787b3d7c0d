package surface

// current is the top of this surface's stack. Script may still hold the
// tree of a surface that was covered by a push, and its commands act on
// whatever is on top.
func (s *Surface) current() *Surface {
	if top := s.stack.Top(); top != nil {
		return top
	}
	return s
}

// NavigateForward pushes a new surface that shares the current content.
func (s *Surface) NavigateForward(opts Options) *Surface {
	from := s.current()
	s.env.Logger.Debug("navigate forward", "surface", from.id, "title", opts.Title)

	from.disappearedBy = Push
	next := from.spawn(opts)
	next.storedAppearance = Push
	next.stack = from.stack
	from.stack.push(next)

	transition(Push, from, next, false)
	return next
}

// NavigateBackward pops the top surface. Popping the last surface is a
// no-op.
func (s *Surface) NavigateBackward() {
	top := s.current()
	s.env.Logger.Debug("navigate backward", "surface", top.id)

	top.disappearedBy = Pop
	st := top.stack
	if st.Len() <= 1 {
		return
	}
	st.pop()
	transition(Pop, top, st.Top(), true)
}

// PopToRoot collapses the stack to its root. Surfaces between the root and
// the top never come back, so their trees are detached.
func (s *Surface) PopToRoot() {
	top := s.current()
	s.env.Logger.Debug("pop to root", "surface", top.id)

	top.disappearedBy = Pop
	st := top.stack
	if st.Len() <= 1 {
		return
	}
	for _, mid := range st.surfaces[1 : st.Len()-1] {
		mid.disappearedBy = Pop
		if mid.caps != nil {
			mid.caps.RebindParent(nil)
		}
	}
	clear(st.surfaces[1:])
	st.surfaces = st.surfaces[:1]
	transition(Pop, top, st.Root(), true)
}

// PresentModal presents a new stack rooted at a surface sharing the current
// content.
func (s *Surface) PresentModal(opts Options) *Surface {
	from := s.current()
	s.env.Logger.Debug("present modal", "surface", from.id, "title", opts.Title)

	from.disappearedBy = Modal
	next := from.spawn(opts)
	next.storedAppearance = Modal
	next.stack = &Stack{surfaces: []*Surface{next}, presenter: from}
	from.presented = next.stack

	transition(Modal, from, next, false)
	return next
}

// DismissModal tears down the presented stack this surface belongs to. When
// called on a presenter it dismisses what it presented.
func (s *Surface) DismissModal() {
	s.env.Logger.Debug("dismiss modal", "surface", s.id)

	if s.stack.presenter == nil {
		if s.presented != nil {
			s.presented.Top().DismissModal()
		}
		return
	}

	top := s.stack.Top()
	top.disappearedBy = Dismiss
	s.closeStack(Dismiss, top)
}

// closeStack removes this surface's presented stack and returns to the
// presenter.
func (s *Surface) closeStack(kind Transition, top *Surface) {
	st := s.stack
	presenter := st.presenter
	if presenter == nil {
		return
	}
	if presenter.presented == st {
		presenter.presented = nil
	}
	transition(kind, top, presenter, false)
}

// StepBack is the default back action: go back in the shared content's
// history with load events routed to the surface now on top.
func (s *Surface) StepBack() {
	s.renderer.StopLoading()
	if top := s.stack.Top(); top != nil && top.renderer == s.renderer {
		s.renderer.Attach(top.id, top)
	}
	s.renderer.GoBack()
}

func (s *Surface) spawn(opts Options) *Surface {
	next := newSurface(s.env, s.renderer)
	caps := s.env.Binder.EnsureBound(next)
	if caps != nil {
		caps.Configure(opts)
	}
	return next
}

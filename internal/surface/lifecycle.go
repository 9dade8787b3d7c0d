package surface

// WillAppear moves the shared content into this surface and puts the stored
// placeholder on top until script reveals the content.
func (s *Surface) WillAppear() {
	if s.AppearedFrom() == Unknown {
		return
	}

	s.renderer.Attach(s.id, s)
	if s.snapshotID == "" {
		return
	}
	if img, ok := s.env.Snapshots.Retrieve(s.snapshotID); ok {
		s.env.Native.SetPlaceholder(s.id, img)
		s.placeholder = true
	}
}

func (s *Surface) DidAppear() {
	s.onScreen = true
	if s.caps != nil {
		s.caps.Appeared()
	}

	switch s.AppearedFrom() {
	case Pop, Dismiss:
		// the runtime may have been recreated while we were covered
		s.env.Binder.EnsureBound(s)
	}
}

// WillDisappear runs before the surface goes off screen. removing is set
// when the surface is leaving its stack for good rather than being covered.
func (s *Surface) WillDisappear(removing bool) {
	s.onScreen = false
	switch {
	case s.disappearedBy.isWebTransition():
		s.capture()
		s.renderer.SetHidden(true)
	case s.disappearedBy == Unknown && removing:
		s.renderer.SetHidden(true)
	}

	if s.caps == nil {
		return
	}
	if s.disappearedBy != Pop && removing {
		s.caps.Back()
	}
	s.caps.Disappeared()

	if s.disappearedBy == Pop || (s.disappearedBy == Unknown && removing) {
		s.caps.RebindParent(nil)
	}
}

func (s *Surface) DidDisappear() {
	if s.disappearedBy == Unknown {
		s.storedAppearance = Unknown
		return
	}
	// the persisted copy stays reachable through snapshotID
	s.clearPlaceholder()
}

func (s *Surface) capture() {
	img, err := s.renderer.Capture()
	if err != nil {
		s.env.Logger.Debug("snapshot capture failed", "surface", s.id, "err", err)
		return
	}
	if len(img) == 0 {
		return
	}

	s.env.Native.SetPlaceholder(s.id, img)
	s.placeholder = true
	s.snapshotID = s.env.Snapshots.Persist(img)
}

// transition runs the disappear and appear halves of a move from one surface
// to another in host order.
func transition(kind Transition, from, to *Surface, removing bool) {
	from.WillDisappear(removing)
	to.WillAppear()
	from.env.Native.Transitioned(kind.String(), from.id, to.id)
	from.DidDisappear()
	to.DidAppear()
}

package surface

// Stack is an ordered run of surfaces, such as a navigation stack or a
// presented modal.
type Stack struct {
	surfaces  []*Surface
	presenter *Surface
}

func (st *Stack) Len() int {
	return len(st.surfaces)
}

func (st *Stack) Top() *Surface {
	if len(st.surfaces) == 0 {
		return nil
	}
	return st.surfaces[len(st.surfaces)-1]
}

func (st *Stack) Root() *Surface {
	if len(st.surfaces) == 0 {
		return nil
	}
	return st.surfaces[0]
}

func (st *Stack) Surfaces() []*Surface {
	return append([]*Surface(nil), st.surfaces...)
}

// Presenter returns the surface this stack was presented from, or nil for a
// root stack.
func (st *Stack) Presenter() *Surface {
	return st.presenter
}

func (st *Stack) push(s *Surface) {
	st.surfaces = append(st.surfaces, s)
}

func (st *Stack) pop() *Surface {
	top := st.Top()
	if top == nil {
		return nil
	}
	st.surfaces[len(st.surfaces)-1] = nil
	st.surfaces = st.surfaces[:len(st.surfaces)-1]
	return top
}

// HostPop removes the top surface on behalf of the host, as a system back
// gesture does. The removed surface keeps whatever disappearedBy it had, so
// script hears about it as an implicit back navigation.
func (st *Stack) HostPop() {
	if len(st.surfaces) <= 1 {
		return
	}
	top := st.pop()
	transition(Pop, top, st.Top(), true)
}

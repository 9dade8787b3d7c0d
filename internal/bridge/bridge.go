package bridge

import (
	"github.com/arko-chat/hybrid/internal/script"
)

// SurfaceID identifies one display surface.
type SurfaceID = string

type BarButton struct {
	ID    string
	Title string
	Image string
}

type Alert struct {
	Title   string
	Message string
	Actions []string
}

// Page is loaded content ready to be handed to a renderer.
type Page struct {
	URL      string
	MIMEType string
	Charset  string
	Body     []byte
	Title    string
}

// NativeBridge is implemented by the host shell: the desktop webview, the
// gomobile app or the headless simulator. Every method is called on the
// owner loop. Dispatch is the only method that may be called from any
// goroutine.
type NativeBridge interface {
	// Dispatch runs fn on the owner loop.
	Dispatch(fn func())

	// NewRenderer creates a render surface with its own script runtime.
	NewRenderer() (Renderer, error)

	// SetTitle sets the chrome title of a surface. An empty title clears it.
	SetTitle(id SurfaceID, title string)

	// SetButtons replaces the left and right chrome buttons. nil removes a
	// button. onTap receives the tapped button's ID.
	SetButtons(id SurfaceID, left, right *BarButton, onTap func(buttonID string))

	SetBackHidden(id SurfaceID, hidden bool)
	SetTabBarHidden(id SurfaceID, hidden bool)

	// ShowAlert presents a modal alert. done receives the index of the
	// selected action, or -1 when the alert went away without a selection.
	ShowAlert(id SurfaceID, alert Alert, done func(index int))

	Share(id SurfaceID, items []string)

	// ShowError replaces the surface content with message and a retry
	// control.
	ShowError(id SurfaceID, message string, retry func())
	HideError(id SurfaceID)

	// SetPlaceholder shows image above the surface content. nil removes it.
	SetPlaceholder(id SurfaceID, image []byte)

	// Transitioned asks the host to move from one surface to another.
	// kind is one of push, pop, modal, dismiss or external.
	Transitioned(kind string, from, to SurfaceID)
}

// Renderer is a render surface shared by every display surface that shows
// the same content.
type Renderer interface {
	ID() string
	Runtime() script.Runtime

	// Attach makes id the owner of the renderer and routes load events to d.
	Attach(id SurfaceID, d Delegate)
	Owner() SurfaceID

	Render(page Page)
	SetHidden(hidden bool)
	Capture() ([]byte, error)

	CanGoBack() bool
	GoBack()
	StopLoading()
}

// Delegate receives load events from a renderer.
type Delegate interface {
	// ShouldStartLoad reports whether the renderer may navigate to url.
	ShouldStartLoad(url string) bool
	DidFinishLoad()
	DidFailLoad(err error)
}

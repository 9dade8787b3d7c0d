package surface

import (
	"context"
	"log/slog"
	"weak"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/oklog/ulid/v2"
)

// SnapshotStore keeps placeholder images of surfaces that went off screen.
type SnapshotStore interface {
	Persist(image []byte) string
	Retrieve(id string) ([]byte, bool)
}

type Loader interface {
	Load(ctx context.Context, url string) (bridge.Page, error)
}

// Capabilities is the native object tree bound into a surface's script
// runtime.
type Capabilities interface {
	Appeared()
	Disappeared()

	// Back is the implicit back navigation sent to script when a surface
	// is removed without a pop.
	Back()

	// RebindParent hands the whole tree to s. nil detaches it.
	RebindParent(s *Surface)

	Configure(opts Options)
}

// Binder installs capability trees into script runtimes.
type Binder interface {
	Track(s *Surface)
	EnsureBound(s *Surface) Capabilities
	Reset(s *Surface)
}

type Env struct {
	Native    bridge.NativeBridge
	Snapshots SnapshotStore
	Loader    Loader
	Binder    Binder
	Logger    *slog.Logger

	ShowErrorDisplay bool
	FeatureName      string
}

// Options configure a surface created by a forward or modal transition.
type Options struct {
	Title        string
	TabBarHidden bool
	OnAppear     script.Ref

	// Buttons holds the left and right chrome buttons when HasButtons is
	// set. A nil entry leaves that side empty.
	Buttons     []*bridge.BarButton
	HasButtons  bool
	OnButtonTap script.Ref
}

type ExternalOptions struct {
	URL       string
	ReturnURL string
	Title     string
}

// Surface is one display surface. Every method must be called on the owner
// loop.
type Surface struct {
	id  string
	env *Env

	renderer bridge.Renderer
	stack    *Stack
	// presented is the modal or external stack shown on top of this surface
	presented *Stack

	disappearedBy    Transition
	storedAppearance Transition

	snapshotID  string
	placeholder bool

	returnURL  string
	presenting weak.Pointer[Surface]

	caps Capabilities

	title      string
	url        string
	cancelLoad context.CancelFunc
	loadSeq    uint64
	errorShown bool
	onScreen   bool
}

func newSurface(env *Env, r bridge.Renderer) *Surface {
	s := &Surface{
		id:               ulid.Make().String(),
		env:              env,
		renderer:         r,
		storedAppearance: Push,
	}
	env.Binder.Track(s)
	return s
}

// NewRoot creates the first surface of a fresh stack on a new renderer.
func NewRoot(env *Env) (*Surface, error) {
	r, err := env.Native.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := newSurface(env, r)
	s.stack = &Stack{surfaces: []*Surface{s}}
	r.Attach(s.id, s)
	return s, nil
}

// Start shows a root surface and loads url into it.
func (s *Surface) Start(url string) {
	s.WillAppear()
	s.DidAppear()
	s.Load(url)
}

func (s *Surface) ID() string {
	return s.id
}

func (s *Surface) Renderer() bridge.Renderer {
	return s.renderer
}

func (s *Surface) Stack() *Stack {
	return s.stack
}

// Presented returns the stack presented over this surface, if any.
func (s *Surface) Presented() *Stack {
	return s.presented
}

func (s *Surface) Capabilities() Capabilities {
	return s.caps
}

func (s *Surface) SetCapabilities(c Capabilities) {
	s.caps = c
}

func (s *Surface) AppearedFrom() Transition {
	return AppearedFrom(s.disappearedBy, s.storedAppearance)
}

func (s *Surface) SetAppearedFrom(t Transition) {
	s.storedAppearance = t
}

func (s *Surface) DisappearedBy() Transition {
	return s.disappearedBy
}

// Presenting returns the surface that presented this external surface, or
// nil when there is none or it is gone.
func (s *Surface) Presenting() *Surface {
	return s.presenting.Value()
}

func (s *Surface) ReturnURL() string {
	return s.returnURL
}

func (s *Surface) SnapshotID() string {
	return s.snapshotID
}

func (s *Surface) Title() string {
	return s.title
}

func (s *Surface) SetTitle(title string) {
	s.title = title
	s.env.Native.SetTitle(s.id, title)
}

// OnScreen reports whether the surface appeared and has not started to
// disappear since.
func (s *Surface) OnScreen() bool {
	return s.onScreen
}

func (s *Surface) URL() string {
	return s.url
}

func (s *Surface) Logger() *slog.Logger {
	return s.env.Logger
}

func (s *Surface) Native() bridge.NativeBridge {
	return s.env.Native
}

// RenewBridge drops the bound capability tree and binds a fresh one.
func (s *Surface) RenewBridge() Capabilities {
	s.env.Binder.Reset(s)
	return s.env.Binder.EnsureBound(s)
}

// ShowContent reveals the live content and drops any placeholder.
func (s *Surface) ShowContent() {
	s.renderer.SetHidden(false)
	s.clearPlaceholder()
}

func (s *Surface) clearPlaceholder() {
	if !s.placeholder {
		return
	}
	s.env.Native.SetPlaceholder(s.id, nil)
	s.placeholder = false
}

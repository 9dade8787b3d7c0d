package mobile

// Shell is implemented by the native app and handed over through gomobile.
// Structured arguments travel as JSON strings. Every method is called on the
// owner loop's goroutine, so implementations hop to their UI thread.
type Shell interface {
	// CreateWebView makes a web view for rendererID. The web view must
	// inject a <script src=scriptURL> at document start on every load.
	CreateWebView(rendererID string, scriptURL string) error
	LoadHTML(rendererID, baseURL, mimeType, charset string, body []byte)
	SetWebViewHidden(rendererID string, hidden bool)
	CaptureWebView(rendererID string) ([]byte, error)
	StopLoading(rendererID string)
	// CanGoBack and GoBack use the web view's own back list. LoadHTML and
	// links the view follows both add to it.
	CanGoBack(rendererID string) bool
	GoBack(rendererID string)

	SetTitle(surfaceID, title string)
	// SetButtons receives {"left":button|null,"right":button|null}.
	SetButtons(surfaceID, buttonsJSON string)
	SetBackHidden(surfaceID string, hidden bool)
	SetTabBarHidden(surfaceID string, hidden bool)
	// ShowAlert receives {"title","message","actions":[...]}. The app
	// reports the outcome through AlertDone with alertID.
	ShowAlert(surfaceID string, alertID int, alertJSON string)
	// Share receives a JSON array of strings.
	Share(surfaceID, itemsJSON string)
	ShowError(surfaceID, message string)
	HideError(surfaceID string)
	SetPlaceholder(surfaceID string, image []byte)
	Transition(kind, from, to string)
}

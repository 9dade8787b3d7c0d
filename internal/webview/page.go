package webview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"

	"github.com/PuerkitoBio/goquery"
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/gabriel-vasile/mimetype"
)

type buttonJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type alertJSON struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}

// chromeState is what chrome.js draws around a page.
type chromeState struct {
	Title        string      `json:"title"`
	Left         *buttonJSON `json:"left"`
	Right        *buttonJSON `json:"right"`
	Back         bool        `json:"back"`
	TabBarHidden bool        `json:"tabBarHidden"`
	Hidden       bool        `json:"hidden"`
	Error        string      `json:"error,omitempty"`
	Placeholder  string      `json:"placeholder,omitempty"`
	Alert        *alertJSON  `json:"alert,omitempty"`
}

func toButtonJSON(b *bridge.BarButton) *buttonJSON {
	if b == nil {
		return nil
	}
	return &buttonJSON{ID: b.ID, Title: b.Title}
}

// dataURL encodes a placeholder image for an <img> element.
func dataURL(image []byte) string {
	if len(image) == 0 {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s",
		mimetype.Detect(image).String(), base64.StdEncoding.EncodeToString(image))
}

// pageHTML prepares page for SetHtml. Relative links keep resolving against
// the page's URL through an injected <base>.
func pageHTML(page bridge.Page) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", page.URL, err)
	}

	head := doc.Find("head").First()
	if head.Find("base[href]").Length() == 0 {
		base := fmt.Sprintf(`<base href="%s">`, html.EscapeString(page.URL))
		head.PrependHtml(base)
	}
	return doc.Html()
}

func isHTML(page bridge.Page) bool {
	return page.MIMEType == "" || page.MIMEType == "text/html" || page.MIMEType == "application/xhtml+xml"
}

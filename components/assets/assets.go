package assets

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed all:pages
var pageFiles embed.FS

// IndexPage is the page the app starts on when no start URL is configured.
const IndexPage = "index.html"

// PagesFS returns the bundled example pages.
func PagesFS() fs.FS {
	sub, _ := fs.Sub(pageFiles, "pages")
	return sub
}

// Page returns the bundled page at urlPath. An empty path or "/" is the
// index page.
func Page(urlPath string) ([]byte, error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = IndexPage
	}
	return fs.ReadFile(PagesFS(), name)
}

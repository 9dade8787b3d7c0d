package headless

import (
	"context"
	"fmt"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/loader"
)

// Pages is a static site keyed by URL. It satisfies surface.Loader.
type Pages map[string]string

func (p Pages) Load(ctx context.Context, url string) (bridge.Page, error) {
	if err := ctx.Err(); err != nil {
		return bridge.Page{}, err
	}
	body, ok := p[url]
	if !ok {
		return bridge.Page{}, &loader.StatusError{URL: url, Code: 404}
	}

	page := bridge.Page{
		URL:      url,
		MIMEType: "text/html",
		Charset:  "utf-8",
		Body:     []byte(body),
	}
	title, err := loader.PageTitle(page.Body)
	if err != nil {
		return bridge.Page{}, fmt.Errorf("parse %s: %w", url, err)
	}
	page.Title = title
	return page, nil
}

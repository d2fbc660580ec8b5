// Package assets embeds the preview page served by the web package.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web/index.html
var webFS embed.FS

// WebUI is rooted at the page directory, so index.html is served at "/".
var WebUI = mustSub(webFS, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

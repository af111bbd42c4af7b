package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// Handler serves the embedded chat page
func Handler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// the embedded tree is fixed at build time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

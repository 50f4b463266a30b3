package site

import (
	"embed"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// FS returns the embedded assets. Paths keep their static/ prefix so the
// file server can be mounted at /static/.
func FS() http.FileSystem {
	return http.FS(staticFS)
}

func indexPage() []byte {
	b, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return nil
	}
	return b
}

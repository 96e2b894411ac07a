// Package client provides the embedded browser script that connects
// widget tags to the live server.
package client

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"time"
)

// ScriptName is the file name of the client script.
const ScriptName = "webwidgets.js"

//go:embed src/*.js
var assets embed.FS

// loaded is used as the modification time for conditional requests.
var loaded = time.Now()

// Assets returns the embedded filesystem containing JavaScript files.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Script returns the client script source.
func Script() []byte {
	data, err := assets.ReadFile("src/" + ScriptName)
	if err != nil {
		panic(err)
	}
	return data
}

// ScriptHandler serves the client script.
func ScriptHandler() http.Handler {
	body := Script()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		http.ServeContent(w, r, ScriptName, loaded, bytes.NewReader(body))
	})
}

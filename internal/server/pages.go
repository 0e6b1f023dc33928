package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
)

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>File Upload API Documentation</title>
</head>
<body>
  <h1>File Upload API Documentation</h1>
  <p>Welcome to the File Upload API. Below you will find information on how to use the endpoints.</p>

  <h2>Upload a File</h2>
  <p>To upload a file, use the following endpoint:</p>
  <pre><code>POST /upload</code></pre>
  <p>Send a <code>multipart/form-data</code> request with the file included in the <code>file</code> field.</p>
  <p>Example using <code>curl</code>:</p>
  <pre><code>curl -F "file=@/path/to/your/file" {{.BaseURL}}/upload</code></pre>
  <p>The response is the stored file record as JSON, including its public <code>url</code>.</p>

  <h2>File Access</h2>
  <p>Files can be accessed directly using the URL provided in the response of the upload endpoint.</p>
  <p>Example URL:</p>
  <pre><code>{{.BaseURL}}/files/your-file-id.ext</code></pre>
</body>
</html>
`))

var notFoundTemplate = template.Must(template.New("404").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>404 Not Found</title>
</head>
<body>
  <h1>404 Not Found</h1>
  <p>The requested URL {{.}} was not found on this server.</p>
  <p>For more information, visit <a href="/">the documentation</a>.</p>
</body>
</html>
`))

// docsHandler serves the static API documentation page for GET /.
// The page is rendered once; only the configured base URL varies.
func (cfg Config) docsHandler() http.HandlerFunc {
	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, struct{ BaseURL string }{cfg.BaseURL}); err != nil {
		panic(err)
	}
	page := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, http.StatusOK, page)
	}
}

// notFoundHandler renders the 404 page echoing the requested URL.
func (cfg Config) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := notFoundTemplate.Execute(&buf, r.URL.RequestURI()); err != nil {
			requestLogger(cfg.Logger, r).Error("rendering 404 page failed", slog.Any("err", err))
			internalError(w)
			return
		}
		writeHTML(w, http.StatusNotFound, buf.Bytes())
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

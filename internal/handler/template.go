package handler

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// waitingRoomHTML is the single page this service renders. It shows the
// user's live rank and re-requests itself so the rank stays current and
// the redirect fires as soon as the user is admitted.
const waitingRoomHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Waiting room</title>
</head>
<body>
<h1>Waiting room</h1>
<p>You are in line for the <strong>{{.queue}}</strong> queue.</p>
<p>User: <strong>{{.userId}}</strong></p>
<p>Your number: <strong>{{.number}}</strong></p>
<p>This page refreshes automatically. Please keep it open.</p>
<script>
    setTimeout(function () { window.location.reload(); }, 3000);
</script>
</body>
</html>
`

// TemplateRenderer implements echo.Renderer over html/template.
type TemplateRenderer struct {
	templates *template.Template
}

// NewRenderer builds the renderer with the embedded waiting-room template.
func NewRenderer() *TemplateRenderer {
	return &TemplateRenderer{
		templates: template.Must(template.New("waiting-room.html").Parse(waitingRoomHTML)),
	}
}

// Render writes the named template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the read-only server status page.
func Home(data StatusData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="ja">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`)
		b.WriteString(templ.EscapeString(data.Title))
		b.WriteString(`</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <h1>`)
		b.WriteString(templ.EscapeString(data.Title))
		b.WriteString(`</h1>
        <p>storage: `)
		b.WriteString(templ.EscapeString(data.Storage))
		b.WriteString(`</p>
`)
		if data.ContentReady {
			b.WriteString(`        <p>content: ` + itoa(data.Initials) + ` initials, ` + itoa(data.Words) + ` words</p>
`)
		} else {
			b.WriteString(`        <p>content: not loaded</p>
`)
		}
		b.WriteString(`      </header>
`)
		b.WriteString(roomTable(data.Rooms))
		b.WriteString(`    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func roomTable(rooms []RoomSummary) string {
	if len(rooms) == 0 {
		return "      <p class=\"empty\">No rooms yet.</p>\n"
	}
	var b strings.Builder
	b.WriteString(`      <table class="rooms">
        <thead><tr><th>Room</th><th>Phase</th><th>Round</th><th>Players</th><th>Created</th></tr></thead>
        <tbody>
`)
	for _, room := range rooms {
		b.WriteString("          <tr><td>")
		b.WriteString(templ.EscapeString(room.Name))
		b.WriteString("</td><td>")
		b.WriteString(templ.EscapeString(room.Phase))
		b.WriteString("</td><td>")
		b.WriteString(itoa(room.Round))
		b.WriteString("</td><td>")
		b.WriteString(itoa(room.Players))
		b.WriteString("</td><td>")
		b.WriteString(formatTime(room.CreatedAt))
		b.WriteString("</td></tr>\n")
	}
	b.WriteString("        </tbody>\n      </table>\n")
	return b.String()
}

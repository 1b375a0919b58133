// Package render turns assistant messages into HTML.
package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/wire"
)

type Output struct {
	HTML     string         `json:"html"`
	Segments []wire.Segment `json:"segments,omitempty"`
}

type Renderer struct {
	markdown goldmark.Markdown
	cards    *template.Template
}

func New() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		cards: cardTemplates,
	}
}

// Message renders text. A message that is still streaming is shown as escaped
// raw text and is not parsed for cards; a complete one is split into segments
// rendered in document order.
func (r *Renderer) Message(text string, streaming bool) (*Output, error) {
	if streaming {
		return &Output{HTML: `<div class="message streaming">` + template.HTMLEscapeString(text) + `</div>`}, nil
	}
	return r.Segments(wire.Parse(text))
}

func (r *Renderer) Segments(segments []wire.Segment) (*Output, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div class="message">`)

	for i, seg := range segments {
		var err error
		switch seg.Kind {
		case wire.KindApplication:
			err = r.cards.ExecuteTemplate(&buf, "application", seg.Application)
		case wire.KindJob:
			err = r.cards.ExecuteTemplate(&buf, "job", seg.Job)
		default:
			err = r.markdown.Convert([]byte(seg.Text), &buf)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "render segment %d (%s)", i, seg.Kind)
		}
	}

	buf.WriteString(`</div>`)
	return &Output{HTML: buf.String(), Segments: segments}, nil
}

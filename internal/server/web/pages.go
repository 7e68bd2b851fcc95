package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "register", "home", "readme"}

// pageData is handed to the layout. Page holds the per-page struct.
type pageData struct {
	Title string
	Path  string
	User  *identity.Payload
	Page  any
}

type loginData struct {
	ClientID          string
	LoginURI          string
	DisableAutoSelect bool
	Error             string
}

type registerData struct {
	Collection string
	Name       string
	Email      string
	Pending    bool
	Done       bool
	Error      string
}

type homeData struct {
	Collection string
}

type pages struct {
	byName map[string]*template.Template
}

func loadPages() (*pages, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

func (s *Server) render(c fiber.Ctx, status int, name string, data pageData) error {
	t, ok := s.pages.byName[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if sc := sessionOf(c); sc != nil {
		data.User = sc.Current()
	}
	data.Path = c.Path()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderReadme converts the markdown file at path. A missing file renders a
// short notice together with the error.
func renderReadme(path string) (template.HTML, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return template.HTML("<p>README is not available.</p>"), err
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return template.HTML("<p>README could not be rendered.</p>"), err
	}
	return template.HTML(buf.String()), nil
}

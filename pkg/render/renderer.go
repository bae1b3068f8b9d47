package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/toast"
	"github.com/vango-dev/userpages/pkg/userlist"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StylePath is the URL of the embedded stylesheet under the static prefix.
const StylePath = "/static/app.css"

// Static returns the embedded static assets, rooted so that "app.css"
// resolves to StylePath below the "/static/" prefix.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page names.
const (
	PageIndex   = "index"
	PageProfile = "profile"
	PageUsers   = "users"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Title is the application title shown in every page title.
	// Defaults to "userpages".
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en".
	Lang string

	// StyleSheets contains paths to stylesheets. Nil means StylePath;
	// an empty non-nil slice links none.
	StyleSheets []string
}

// PageData contains the per-request data shared by every page.
type PageData struct {
	// Title is the page title, prefixed to the application title.
	Title string

	// Toasts are pending notifications rendered once.
	Toasts []toast.Toast

	// Live is the WebSocket path for state pushes. Empty disables them.
	Live string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	config RendererConfig
	pages  map[string]*template.Template
}

// layoutData is the value every page template executes against.
type layoutData struct {
	App         string
	Lang        string
	StyleSheets []string
	Page        PageData
	StateKey    string
	View        any
}

// NewRenderer parses the embedded templates.
func NewRenderer(config RendererConfig) (*Renderer, error) {
	if config.Title == "" {
		config.Title = "userpages"
	}
	if config.Lang == "" {
		config.Lang = "en"
	}
	if config.StyleSheets == nil {
		config.StyleSheets = []string{StylePath}
	}

	base, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{PageIndex, PageProfile, PageUsers} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("render: clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{config: config, pages: pages}, nil
}

// MustNewRenderer is like NewRenderer but panics on error. The templates
// are embedded, so an error here is a build defect.
func MustNewRenderer(config RendererConfig) *Renderer {
	r, err := NewRenderer(config)
	if err != nil {
		panic(err)
	}
	return r
}

// RenderIndex renders the landing page.
func (r *Renderer) RenderIndex(w io.Writer, page PageData) error {
	return r.render(w, PageIndex, page, "", nil)
}

// RenderProfile renders the profile page for snap.
func (r *Renderer) RenderProfile(w io.Writer, page PageData, snap profile.Snapshot) error {
	if page.Title == "" {
		page.Title = "User Profile"
	}
	return r.render(w, PageProfile, page, ProfileKey(snap), NewProfileView(snap))
}

// RenderUsers renders the user list page for snap.
func (r *Renderer) RenderUsers(w io.Writer, page PageData, snap userlist.Snapshot) error {
	if page.Title == "" {
		page.Title = "Users List"
	}
	return r.render(w, PageUsers, page, UsersKey(snap), NewUsersView(snap))
}

// render buffers the page so a template error never leaves partial output.
func (r *Renderer) render(w io.Writer, name string, page PageData, key string, view any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page %q", name)
	}
	data := layoutData{
		App:         r.config.Title,
		Lang:        r.config.Lang,
		StyleSheets: r.config.StyleSheets,
		Page:        page,
		StateKey:    key,
		View:        view,
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render: execute %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

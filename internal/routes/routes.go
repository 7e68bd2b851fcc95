// Package routes names the views shared by the web surface and the terminal
// client and declares which of them need a signed-in session.
package routes

const (
	Home     = "/"
	Login    = "/login"
	Register = "/register"
	ReadMe   = "/read-me"
)

// Route is a guarded view.
type Route struct {
	Path        string
	Title       string
	RequireAuth bool
}

// Guarded lists every gated view.
var Guarded = []Route{
	{Path: Home, Title: "Dashboard", RequireAuth: true},
	{Path: ReadMe, Title: "Read me", RequireAuth: true},
	{Path: Login, Title: "Sign in", RequireAuth: false},
	{Path: Register, Title: "Register", RequireAuth: false},
}

// Lookup reports the guard requirement of path.
func Lookup(path string) (Route, bool) {
	for _, r := range Guarded {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

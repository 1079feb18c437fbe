package humastar

import "fmt"

// Action is a state-dependent hypermedia link. Response bodies that
// implement Actor get one Link header per action:
//
//	</api/v1/sessions/42>; rel="delete"; method="DELETE"; title="Close session"
type Action struct {
	Rel    string // IANA or custom rel
	Href   string // target URL
	Method string // HTTP method
	Title  string // optional label
}

// Actor is implemented by response bodies that provide actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	return h
}

// ActionDef is an action template. Pattern holds one %s verb for the
// resource ID.
type ActionDef struct {
	Rel     string
	Pattern string
	Method  string
	Title   string
	// When reports whether the action applies. Nil means always.
	When func() bool
}

// ActionsFor expands defs for id, skipping those whose When is false.
func ActionsFor(id string, defs []ActionDef) []Action {
	actions := make([]Action, 0, len(defs))
	for _, d := range defs {
		if d.When != nil && !d.When() {
			continue
		}
		actions = append(actions, Action{
			Rel:    d.Rel,
			Href:   fmt.Sprintf(d.Pattern, id),
			Method: d.Method,
			Title:  d.Title,
		})
	}
	return actions
}

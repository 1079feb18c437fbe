package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-viewer/internal/apperr"
	"github.com/joeblew999/plat-viewer/internal/catalog"
	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/render"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/store"
	"github.com/joeblew999/plat-viewer/internal/urlstate"
)

const sessionsPath = "/api/v1/sessions"

// Inputs

type SessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type SessionLayerInput struct {
	SessionInput
	Name string `path:"name" doc:"Layer name" example:"roads"`
}

type SessionGroupInput struct {
	SessionInput
	Name string `path:"name" doc:"Group name" example:"traffic"`
}

type URLQueryInput struct {
	Layers string `query:"layers" doc:"Layers parameter, flat or compact" example:"osm,traffic(1,0)"`
	Groups string `query:"groups" doc:"Group order, topmost first" example:"traffic,nature"`
	Map    string `query:"map" doc:"Map view as zoom,x,y" example:"10,467000,5763000"`
}

func (i URLQueryInput) values() url.Values {
	v := url.Values{}
	for k, s := range map[string]string{urlstate.ParamLayers: i.Layers, urlstate.ParamGroups: i.Groups, urlstate.ParamMap: i.Map} {
		if s != "" {
			v.Set(k, s)
		}
	}
	return v
}

type ListSessionsInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Page offset"`
	Limit  int `query:"limit" minimum:"0" maximum:"500" default:"50" doc:"Page size"`
}

type BackgroundBody struct {
	Name string `json:"name" required:"true" minLength:"1" doc:"Background layer name" example:"ortho"`
}

type GroupPatch struct {
	Visible bool `json:"visible" doc:"Show or hide all member layers"`
}

type OrderBody struct {
	Groups []string `json:"groups" required:"true" doc:"Group names, topmost first"`
}

type ViewBody struct {
	Zoom float64 `json:"zoom" minimum:"0" maximum:"30" doc:"Zoom level"`
	X    float64 `json:"x" doc:"Center x in the map projection"`
	Y    float64 `json:"y" doc:"Center y in the map projection"`
}

type URLInput struct {
	SessionInput
	Mode string `query:"mode" enum:"xyz,map,full" doc:"Sync mode, defaults to the application mode"`
}

type ApplyURLBody struct {
	Query string `json:"query" required:"true" doc:"Query string to apply" example:"layers=osm,traffic(1,0)&map=10,467000,5763000"`
}

// Outputs

// SessionBody is a session with its state-dependent actions.
type SessionBody struct {
	service.SessionInfo
}

var sessionActions = []humastar.ActionDef{
	{Rel: "delete", Pattern: sessionsPath + "/%s", Method: "DELETE", Title: "Close session"},
	{Rel: "url", Pattern: sessionsPath + "/%s/url", Method: "GET", Title: "Encode as URL"},
	{Rel: "render", Pattern: sessionsPath + "/%s/render", Method: "GET", Title: "Render list"},
	{Rel: "events", Pattern: sessionsPath + "/%s/events", Method: "GET", Title: "Live updates"},
}

// Actions implements humastar.Actor.
func (b SessionBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, sessionActions)
}

type SessionOutput struct {
	Body SessionBody
}

type URLBody struct {
	Mode   string `json:"mode" doc:"Sync mode used"`
	Query  string `json:"query" doc:"Encoded query string"`
	Layers string `json:"layers,omitempty" doc:"Layers parameter"`
	Groups string `json:"groups,omitempty" doc:"Groups parameter"`
	Map    string `json:"map,omitempty" doc:"Map parameter"`
}

type CatalogToggleBody struct {
	Action  catalog.Action `json:"action" enum:"added,removed" doc:"What the toggle did"`
	Session SessionBody    `json:"session"`
}

// RegisterSessions registers session routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	tags := huma.OperationTags("sessions")
	huma.Get(api, sessionsPath, h.ListSessions, tags, humastar.OperationID("list-sessions"))
	huma.Post(api, sessionsPath, h.CreateSession, tags, humastar.OperationID("create-session"))
	huma.Get(api, sessionsPath+"/{id}", h.GetSession, tags, humastar.OperationID("get-session"))
	huma.Delete(api, sessionsPath+"/{id}", h.DeleteSession, tags, humastar.OperationID("delete-session"))
	huma.Put(api, sessionsPath+"/{id}/view", h.PutView, tags, humastar.OperationID("put-view"))
	huma.Get(api, sessionsPath+"/{id}/url", h.GetURL, tags, humastar.OperationID("get-url"))
	huma.Post(api, sessionsPath+"/{id}/url", h.ApplyURL, tags, humastar.OperationID("apply-url"))
	huma.Get(api, sessionsPath+"/{id}/render", h.GetRender, tags, humastar.OperationID("get-render"))
}

// RegisterSessionLayers registers background, layer and group routes.
func (h *APIHandler) RegisterSessionLayers(api huma.API) {
	tags := huma.OperationTags("layers")
	huma.Put(api, sessionsPath+"/{id}/background", h.PutBackground, tags, humastar.OperationID("put-background"))
	huma.Post(api, sessionsPath+"/{id}/layers/{name}/toggle", h.ToggleLayer, tags, humastar.OperationID("toggle-layer"))
	huma.Put(api, sessionsPath+"/{id}/layers/{name}", h.PutLayer, tags, humastar.OperationID("put-layer"))
	huma.Put(api, sessionsPath+"/{id}/groups/order", h.PutGroupOrder, tags, humastar.OperationID("put-group-order"))
	huma.Post(api, sessionsPath+"/{id}/groups/{name}/toggle", h.ToggleGroup, tags, humastar.OperationID("toggle-group"))
	huma.Put(api, sessionsPath+"/{id}/groups/{name}", h.PutGroup, tags, humastar.OperationID("put-group"))
	huma.Post(api, sessionsPath+"/{id}/groups/{name}/layers/{layer}/toggle", h.ToggleGroupLayer, tags, humastar.OperationID("toggle-group-layer"))
}

// RegisterSessionCatalog registers per-session catalog routes.
func (h *APIHandler) RegisterSessionCatalog(api huma.API) {
	tags := huma.OperationTags("catalog")
	huma.Get(api, sessionsPath+"/{id}/catalog", h.GetSessionCatalog, tags, humastar.OperationID("get-session-catalog"))
	huma.Post(api, sessionsPath+"/{id}/catalog/{name}/toggle", h.ToggleCatalog, tags, humastar.OperationID("toggle-catalog"))
}

// Handlers

func (h *APIHandler) sessions() (*service.SessionService, error) {
	if h.svc == nil || h.svc.Sessions == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	return h.svc.Sessions, nil
}

func (h *APIHandler) session(id string) (*service.Session, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	sess, err := svc.Get(id)
	if err != nil {
		return nil, httpError(err)
	}
	return sess, nil
}

// update runs fn on the session store and returns the new session state.
func (h *APIHandler) update(id string, fn func(st *store.Store) error) (*SessionOutput, error) {
	sess, err := h.session(id)
	if err != nil {
		return nil, err
	}
	if err := sess.Update(fn); err != nil {
		return nil, httpError(err)
	}
	return &SessionOutput{Body: SessionBody{sess.Info()}}, nil
}

func (h *APIHandler) ListSessions(ctx context.Context, input *ListSessionsInput) (*struct{ Body humastar.PageBody[string] }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	return &struct{ Body humastar.PageBody[string] }{Body: humastar.Paginate(svc.List(), input.Offset, input.Limit)}, nil
}

func (h *APIHandler) CreateSession(ctx context.Context, input *URLQueryInput) (*SessionOutput, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	sess := svc.Create(input.values())
	return &SessionOutput{Body: SessionBody{sess.Info()}}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *SessionInput) (*SessionOutput, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: SessionBody{sess.Info()}}, nil
}

func (h *APIHandler) DeleteSession(ctx context.Context, input *SessionInput) (*struct{ Body MessageBody }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	if err := svc.Delete(input.ID); err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

func (h *APIHandler) PutView(ctx context.Context, input *struct {
	SessionInput
	Body ViewBody
}) (*SessionOutput, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	sess.SetView(urlstate.MapState{Zoom: input.Body.Zoom, Center: orb.Point{input.Body.X, input.Body.Y}})
	return &SessionOutput{Body: SessionBody{sess.Info()}}, nil
}

func (h *APIHandler) GetURL(ctx context.Context, input *URLInput) (*struct{ Body URLBody }, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	mode := h.svc.Sessions.Mode()
	if input.Mode != "" {
		if mode, err = urlstate.ParseMode(input.Mode); err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
	}
	values := sess.Encode(mode)
	return &struct{ Body URLBody }{Body: URLBody{
		Mode:   string(mode),
		Query:  urlstate.QueryString(values),
		Layers: values.Get(urlstate.ParamLayers),
		Groups: values.Get(urlstate.ParamGroups),
		Map:    values.Get(urlstate.ParamMap),
	}}, nil
}

func (h *APIHandler) ApplyURL(ctx context.Context, input *struct {
	SessionInput
	Body ApplyURLBody
}) (*SessionOutput, error) {
	values, err := url.ParseQuery(input.Body.Query)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid query: " + err.Error())
	}
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	if err := sess.Apply(values); err != nil {
		return nil, httpError(err)
	}
	return &SessionOutput{Body: SessionBody{sess.Info()}}, nil
}

func (h *APIHandler) GetRender(ctx context.Context, input *SessionInput) (*struct{ Body []render.HandleState }, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	layers := sess.Render()
	if layers == nil {
		layers = []render.HandleState{}
	}
	return &struct{ Body []render.HandleState }{Body: layers}, nil
}

func (h *APIHandler) PutBackground(ctx context.Context, input *struct {
	SessionInput
	Body BackgroundBody
}) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		l, ok := st.GetLayerByName(input.Body.Name)
		if !ok || !l.IsBackground() {
			return fmt.Errorf("background layer %q: %w", input.Body.Name, apperr.ErrNotFound)
		}
		st.SetActiveBackground(l)
		return nil
	})
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *SessionLayerInput) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		if err := overlayLayer(st, input.Name); err != nil {
			return err
		}
		st.ToggleLayerVisibility(input.Name)
		return nil
	})
}

func (h *APIHandler) PutLayer(ctx context.Context, input *struct {
	SessionLayerInput
	Body service.LayerPatch
}) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		if err := overlayLayer(st, input.Name); err != nil {
			return err
		}
		st.Batch(func() {
			if input.Body.Visible != nil {
				st.SetLayerVisibility(input.Name, *input.Body.Visible)
			}
			if input.Body.Opacity != nil {
				st.SetLayerOpacity(input.Name, *input.Body.Opacity)
			}
		})
		return nil
	})
}

func (h *APIHandler) PutGroupOrder(ctx context.Context, input *struct {
	SessionInput
	Body OrderBody
}) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		st.ReorderGroups(input.Body.Groups)
		return nil
	})
}

func (h *APIHandler) ToggleGroup(ctx context.Context, input *SessionGroupInput) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		if _, ok := st.GetGroupByName(input.Name); !ok {
			return fmt.Errorf("group %q: %w", input.Name, apperr.ErrNotFound)
		}
		st.ToggleGroupVisibility(input.Name)
		return nil
	})
}

func (h *APIHandler) PutGroup(ctx context.Context, input *struct {
	SessionGroupInput
	Body GroupPatch
}) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		if _, ok := st.GetGroupByName(input.Name); !ok {
			return fmt.Errorf("group %q: %w", input.Name, apperr.ErrNotFound)
		}
		st.SetGroupVisibility(input.Name, input.Body.Visible)
		return nil
	})
}

func (h *APIHandler) ToggleGroupLayer(ctx context.Context, input *struct {
	SessionGroupInput
	Layer string `path:"layer" doc:"Member layer name" example:"parks"`
}) (*SessionOutput, error) {
	return h.update(input.ID, func(st *store.Store) error {
		g, ok := st.GetGroupByLayerName(input.Layer)
		if !ok || g.Name() != input.Name {
			return fmt.Errorf("layer %q in group %q: %w", input.Layer, input.Name, apperr.ErrNotFound)
		}
		st.ToggleGroupLayer(input.Layer)
		return nil
	})
}

func (h *APIHandler) GetSessionCatalog(ctx context.Context, input *SessionInput) (*struct{ Body CatalogBody }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	items, err := svc.CatalogItems(input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body CatalogBody }{Body: CatalogBody{Items: items}}, nil
}

func (h *APIHandler) ToggleCatalog(ctx context.Context, input *SessionGroupInput) (*struct{ Body CatalogToggleBody }, error) {
	svc, err := h.sessions()
	if err != nil {
		return nil, err
	}
	action, err := svc.ToggleCatalog(ctx, input.ID, input.Name)
	if err != nil {
		return nil, httpError(err)
	}
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body CatalogToggleBody }{Body: CatalogToggleBody{Action: action, Session: SessionBody{sess.Info()}}}, nil
}

// overlayLayer checks that name is an overlay layer in st.
func overlayLayer(st *store.Store, name string) error {
	l, ok := st.GetLayerByName(name)
	switch {
	case !ok:
		return fmt.Errorf("layer %q: %w", name, apperr.ErrNotFound)
	case l.IsBackground():
		return fmt.Errorf("layer %q is a background layer, use the background route", name)
	}
	return nil
}

// Package router mounts report endpoint groups on a gin engine under a
// versioned API prefix.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by anything that can mount routes on a group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route describes one mounted endpoint.
type Route struct {
	Method string
	Path   string
}

// Router collects endpoint groups and mounts them under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithAPIVersion overrides the default "v1" prefix segment.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a router bound to engine.
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a group for Setup.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// BasePath returns the prefix every registered group is mounted under.
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registered group and returns the resulting routes.
func (r *Router) Setup() []Route {
	api := r.engine.Group(r.BasePath())
	var mounted []Route
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
		if g, ok := registrar.(*DomainGroup); ok {
			for _, rt := range g.Routes() {
				mounted = append(mounted, Route{Method: rt.Method, Path: path.Join(api.BasePath(), rt.Path)})
			}
		}
	}
	return mounted
}

// DomainGroup is a named set of endpoints sharing a prefix and middleware.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	endpoints  []endpoint
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group.
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use appends middleware run before every endpoint of the group.
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET adds a read endpoint.
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, path, handlers)
}

// POST adds a command endpoint.
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, path, handlers)
}

func (dg *DomainGroup) add(method, p string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.endpoints = append(dg.endpoints, endpoint{method: method, path: p, handlers: handlers})
	return dg
}

// RegisterRoutes implements RouteRegistrar.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, ep := range dg.endpoints {
		group.Handle(ep.method, ep.path, ep.handlers...)
	}
}

// Routes lists the group's endpoints relative to the API base path.
func (dg *DomainGroup) Routes() []Route {
	routes := make([]Route, 0, len(dg.endpoints))
	for _, ep := range dg.endpoints {
		routes = append(routes, Route{Method: ep.method, Path: path.Join(dg.prefix, ep.path)})
	}
	return routes
}

// Name returns the group name.
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix.
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultAPIVersion prefixes every group mounted by Mount
const DefaultAPIVersion = "v1"

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// RouteGroup declares a prefix, its middleware and its routes before any of
// them touch the engine, so a group can be built and inspected in isolation.
type RouteGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

func NewRouteGroup(prefix string) *RouteGroup {
	return &RouteGroup{prefix: prefix}
}

func (g *RouteGroup) Use(mw ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, mw...)
	return g
}

func (g *RouteGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *RouteGroup) GET(path string, h ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodGet, path, h...)
}

func (g *RouteGroup) POST(path string, h ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPost, path, h...)
}

func (g *RouteGroup) PUT(path string, h ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPut, path, h...)
}

// Prefix returns the path the group is mounted under, relative to /api/<version>
func (g *RouteGroup) Prefix() string {
	return g.prefix
}

// Mount registers the groups under /api/<version>. An empty version means DefaultAPIVersion.
func Mount(engine *gin.Engine, version string, groups ...*RouteGroup) {
	if version == "" {
		version = DefaultAPIVersion
	}
	api := engine.Group("/api/" + version)
	for _, g := range groups {
		rg := api.Group(g.prefix, g.middleware...)
		for _, r := range g.routes {
			rg.Handle(r.method, r.path, r.handlers...)
		}
	}
}

// Package middleware collects huma middlewares for per-handler wiring.
package middleware

import "github.com/danielgtaylor/huma/v2"

// Container accumulates middlewares for one handler and hands them off,
// clearing itself so the next handler starts from scratch.
type Container struct {
	items huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.items = append(c.items, mw)
}

func (c *Container) GetAllAndClear() huma.Middlewares {
	items := c.items
	c.items = nil
	return items
}

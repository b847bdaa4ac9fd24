package httpkit

import "oracle/internal/platform/net/middleware"

// Protected groups routes under bearer auth
// the group inherits the parent prefix; handlers read the actor with User
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}

package server

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"

	"github.com/anicoll/fleetsync/pkg/api"
)

// RequestValidator checks a request against the operation chi matched it to,
// so handlers only see parameters and bodies the API document allows. It runs
// inside the generated wrapper, where the route pattern is known.
func RequestValidator(doc *openapi3.T) api.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.RouteContext(r.Context())
			if rctx == nil {
				next.ServeHTTP(w, r)
				return
			}
			pattern := rctx.RoutePattern()
			item := doc.Paths.Value(pattern)
			if item == nil || item.GetOperation(r.Method) == nil {
				next.ServeHTTP(w, r)
				return
			}

			pathParams := make(map[string]string, len(rctx.URLParams.Keys))
			for i, key := range rctx.URLParams.Keys {
				pathParams[key] = rctx.URLParams.Values[i]
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route: &routers.Route{
					Spec:      doc,
					Path:      pattern,
					PathItem:  item,
					Method:    r.Method,
					Operation: item.GetOperation(r.Method),
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				handleError(w, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

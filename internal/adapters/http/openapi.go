package httpadapter

import (
	_ "embed"
	"errors"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	specRouterOnce sync.Once
	specRouter     routers.Router
	specRouterErr  error
)

func loadSpecRouter() (routers.Router, error) {
	specRouterOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			specRouterErr = err
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			specRouterErr = err
			return
		}
		specRouter, specRouterErr = legacyrouter.NewRouter(doc)
	})
	return specRouter, specRouterErr
}

// requestValidationMiddleware checks request bodies against the embedded
// OpenAPI document before they reach the handlers. Routes the document
// does not know pass through so the mux can answer 404.
func requestValidationMiddleware(next http.Handler) http.Handler {
	router, err := loadSpecRouter()
	if err != nil {
		// A broken embedded spec is a programming error, fail loudly.
		panic("load openapi spec: " + err.Error())
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			var reqErr *openapi3filter.RequestError
			if errors.As(err, &reqErr) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": reqErr.Error()})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		next.ServeHTTP(w, r)
	})
}

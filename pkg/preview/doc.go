// Package preview serves registered mail templates over HTTP for local
// previewing and integration checks.
//
//	r := preview.NewHandler(registry, registry, mailtmpl.NewContext("preview.local"), log)
//	http.ListenAndServe(":8025", r)
//
// Routes:
//
//	GET  /templates                      ids of all registered templates
//	POST /templates/{id}/render          render with a JSON data body
//	GET  /templates/{id}/bodies/{index}  raw body rendered without data
//	GET  /health/live                    liveness probe
//	GET  /health/ready                   readiness probe running the configured checks
//
// Unknown ids answer 404, render failures 422 and malformed requests 400.
package preview

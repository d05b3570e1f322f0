// Package engine serves mock responses for an OpenAPI document.
//
// A Handler resolves each request to an operation, runs the validation
// pipeline and answers with a synthesized success response:
//
//	doc, _ := spec.LoadFile("petstore.yaml")
//	h, err := engine.NewHandler(doc, engine.WithLogger(log))
//	srv := engine.NewServer(h, engine.WithAddress(":4010"))
//	err = srv.Run(ctx, 5*time.Second)
//
// Unmatched requests get 404 {"message":"Not found"}, rejected requests the
// status chosen by the failing step, and generation failures 500
// {"message":"Something broke!"}. The Server adds the control routes under
// /__specmock, the base path mount, request IDs, access logging and panic
// recovery. A Watcher reloads the document when its file changes.
package engine

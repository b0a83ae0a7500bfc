// Package loader registers the HTTP features of the server.
//
// Each feature implements Feature and mounts its routes in Load. The Manager
// keeps registration order and skips features that report themselves as
// disabled:
//
//	mgr := loader.NewManager()
//	mgr.Register(objects.NewFeature(svc, logg))
//	loaded, err := mgr.LoadAll(app)
package loader

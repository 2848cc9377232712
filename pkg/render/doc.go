// Package render turns diagram source into SVG artifacts.
//
// # Overview
//
// A [Renderer] owns the render state of one editing session: a [Result] that
// is always exactly one of Idle, Loading, Success or Error, and the container
// holding the currently displayed SVG. Only the renderer transitions that
// state.
//
//	r := render.New(loader, render.WithCache(c, cache.DefaultTTL))
//	res := r.Render(ctx, "digraph { a -> b }")
//	if res.Status == render.StatusSuccess {
//	    os.WriteFile("diagram.svg", res.Artifact.SVG, 0644)
//	}
//
// # Ordering
//
// Every request gets a fresh element identity ("diagram-<uuid>") and becomes
// the latest request. The engine runs asynchronously and reports back with a
// completion tagged by that identity; a completion whose identity is no
// longer the latest is discarded. Rendering blank source supersedes any
// in-flight request without invoking the engine.
//
// [Renderer.Render] is [Renderer.Begin] followed by [Request.Wait]. Begin
// registers the request as the latest synchronously, so a caller that keeps
// its own copy of the source can update both under one lock:
//
//	mu.Lock()
//	current = src
//	req := r.Begin(src)
//	mu.Unlock()
//	res := req.Wait(ctx)
//
// # Errors
//
// Engine failures are never shown verbatim. A load failure yields
// "Failed to load the diagram renderer." and any render failure, including
// syntax errors, yields "Invalid diagram syntax. Please check your code.".
// The engine's diagnostic is logged at warn level.
package render

// Package pkg provides the core libraries for diagrammer.
//
// # Overview
//
// Diagrammer turns a plain-language description into diagram source through
// an OpenAI-compatible completion service and renders that source to SVG. The
// pkg directory is organized into three areas:
//
//  1. Domain logic: [completion], [engine], [render], [session], [export]
//  2. Infrastructure: [cache], [history], [credential], [config]
//  3. Cross-cutting: [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	prompt
//	   ↓
//	[completion] package (chat completion, fence stripping)
//	   ↓
//	[session] package (owns the current source, records history)
//	   ↓
//	[render] package (id-tagged renders, stale results discarded)
//	   ↓
//	[engine] package (one-time engine load, graphviz or kroki)
//	   ↓
//	[export] package (diagram.svg, png, pdf)
//
// # Quick Start
//
//	loader, _ := engine.New(engine.Graphviz, engine.Options{})
//	renderer := render.New(loader)
//	client, _ := completion.New(completion.Config{Dialect: completion.DOT})
//	creds := credential.New(credential.NewMemoryStorage(), nil)
//	creds.Set(apiKey)
//
//	sess := session.New(renderer, client, creds)
//	res, err := sess.Generate(ctx, "user login flow with password reset")
//	if err != nil {
//	    fmt.Println(errors.Title(err), errors.UserMessage(err))
//	    return
//	}
//	export.WriteFile(".", res)
//
// # Error Handling
//
// Operations return [errors.Error] values with machine-readable codes
// (MISSING_CREDENTIAL, EMPTY_INPUT, SERVICE_ERROR, MALFORMED_RESPONSE,
// ENGINE_LOAD_FAILED, INVALID_SYNTAX). Render failures are reported in the
// [render.Result] rather than as errors.
//
// [completion]: github.com/matzehuels/diagrammer/pkg/completion
// [engine]: github.com/matzehuels/diagrammer/pkg/engine
// [render]: github.com/matzehuels/diagrammer/pkg/render
// [session]: github.com/matzehuels/diagrammer/pkg/session
// [export]: github.com/matzehuels/diagrammer/pkg/export
// [cache]: github.com/matzehuels/diagrammer/pkg/cache
// [history]: github.com/matzehuels/diagrammer/pkg/history
// [credential]: github.com/matzehuels/diagrammer/pkg/credential
// [config]: github.com/matzehuels/diagrammer/pkg/config
// [errors]: github.com/matzehuels/diagrammer/pkg/errors
// [observability]: github.com/matzehuels/diagrammer/pkg/observability
// [buildinfo]: github.com/matzehuels/diagrammer/pkg/buildinfo
// [errors.Error]: github.com/matzehuels/diagrammer/pkg/errors.Error
// [render.Result]: github.com/matzehuels/diagrammer/pkg/render.Result
package pkg

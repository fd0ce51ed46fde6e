// Package model defines the provider-agnostic abstractions for the reasoning
// service agents call once per turn.
//
// Providers (Anthropic, OpenAI, Gemini) implement the Model interface in
// their own subpackages. NewReasoner adapts any Model to the plain
// call(context, prompts) -> text convention the engine uses, and MockModel
// plays back scripted responses for tests and examples.
package model

// Package testing provides test doubles, builders, and fixtures shared by
// package tests.
//
//   - MockProvider, MockDetector, MockConfigurator: testify mocks of the
//     lifecycle collaborators
//   - ScriptedProvider: a provider fake that replays a scripted sequence of
//     responses and records every call in order
//   - RecordBuilder: fluent builder for workspace records
//
// Usage:
//
//	p := testing.NewScriptedProvider(trace)
//	p.CreateReturns(testing.NewRecord("w-1").Build(), nil)
//	p.GetSequence(testing.NewRecord("w-1").Build(), testing.NewRecord("w-1").WithAddress("10.0.0.5").Build())
package testing

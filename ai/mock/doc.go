// Package mock provides test doubles for the ai interfaces.
//
// The mocks default to deterministic behavior (hash-derived embedding
// vectors, canned replies) so tests are reproducible without external
// services, and expose function fields for injecting custom behavior per
// test. Constructors return concrete types so tests can assert on call
// counts and captured arguments.
package mock

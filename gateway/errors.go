package gateway

import "errors"

var (
	// ErrNoActiveBroker is returned when an inbound message cannot be routed
	// because no broker owns the receiving number and no active broker
	// exists to fall back to.
	ErrNoActiveBroker = errors.New("no active broker to route message to")

	// ErrRepositoriesRequired is returned when the repository set is not provided.
	ErrRepositoriesRequired = errors.New("repositories required")

	// ErrPipelineRequired is returned when the ingestion pipeline is not provided.
	ErrPipelineRequired = errors.New("ingestion pipeline required")
)

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for brokerit.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewMessageRepository(backend)  // returns storage.MessageRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern, with one repository per
// aggregate:
//
//   - BrokerRepository: tenants and webhook routing lookups
//   - PropertyRepository: property records (topic scopes)
//   - ConversationRepository: conversations, including the atomic
//     get-or-create used to guarantee a single active conversation per
//     (broker, client) pair
//   - MessageRepository: inbound/outbound messages
//   - DocumentRepository: knowledge documents and vector similarity search
//   - QueueRepository: the pipeline work queue
//   - InteractionRepository: the append-only pipeline audit trail
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage

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


package badger

import "github.com/poiesic/brokerit/storage"

// Repositories bundles every repository over one backend.
type Repositories struct {
	Brokers       storage.BrokerRepository
	Properties    storage.PropertyRepository
	Conversations storage.ConversationRepository
	Messages      storage.MessageRepository
	Documents     storage.DocumentRepository
	Queue         storage.QueueRepository
	Interactions  storage.InteractionRepository

	backend *Backend
}

// Backend exposes the underlying storage backend.
func (r *Repositories) Backend() *Backend {
	return r.backend
}

// Close closes every repository and the backend.
func (r *Repositories) Close() error {
	var firstErr error
	closers := []func() error{
		r.Brokers.Close,
		r.Properties.Close,
		r.Conversations.Close,
		r.Messages.Close,
		r.Documents.Close,
		r.Queue.Close,
		r.Interactions.Close,
		r.backend.Close,
	}
	for _, close := range closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenRepositories opens the backend at filePath and constructs every
// repository over it. Caller must close the result when done.
func OpenRepositories(filePath string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{backend: backend}
	if repos.Brokers, err = NewBrokerRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Properties, err = NewPropertyRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Conversations, err = NewConversationRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Messages, err = NewMessageRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Documents, err = NewDocumentRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Queue, err = NewQueueRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	if repos.Interactions, err = NewInteractionRepository(backend); err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return OpenRepositories("", true)
}

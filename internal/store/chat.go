package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

func (s *Store) ChatHistory(ns Namespace) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := seededList(s, ns, suffixChat, []model.ChatMessage{})
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	return history, nil
}

// SaveChatHistory overwrites the whole transcript.
func (s *Store) SaveChatHistory(ns Namespace, history []model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if history == nil {
		history = []model.ChatMessage{}
	}
	if err := s.write(ns, suffixChat, history); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}

// AppendChatMessages adds msgs to the end of the transcript under the store
// lock, so turns written while a reply is pending are kept.
func (s *Store) AppendChatMessages(ns Namespace, msgs ...model.ChatMessage) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := seededList(s, ns, suffixChat, []model.ChatMessage{})
	if err != nil {
		return nil, fmt.Errorf("append chat messages: %w", err)
	}
	history = append(history, msgs...)
	if err := s.write(ns, suffixChat, history); err != nil {
		return nil, fmt.Errorf("append chat messages: %w", err)
	}
	return history, nil
}

package service

import (
	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/store"
)

type ServicesConfig struct {
	Stores       *store.Stores
	TxRunner     TxRunner
	Identity     IdentityProvider
	Orchestrator assistant.Orchestrator
	Synthesizer  assistant.Synthesizer
}

type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	identity     IdentityProvider
	orchestrator assistant.Orchestrator
	synthesizer  assistant.Synthesizer
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		stores:       cfg.Stores,
		txRunner:     cfg.TxRunner,
		identity:     cfg.Identity,
		orchestrator: cfg.Orchestrator,
		synthesizer:  cfg.Synthesizer,
	}
}

func (s *Services) Users() UserService {
	return NewUserService(s.stores.Users())
}

func (s *Services) Auth() AuthService {
	return NewAuthService(
		s.stores.Users(),
		s.stores.Sessions(),
		s.txRunner,
		s.identity,
	)
}

func (s *Services) Conversations() ConversationService {
	return NewConversationService(s.stores.Conversations(), s.stores.Messages())
}

func (s *Services) Chat() ChatService {
	return NewChatService(
		s.stores.Conversations(),
		s.stores.Messages(),
		s.orchestrator,
		s.synthesizer,
	)
}

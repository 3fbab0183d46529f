package service

import (
	"pathwise.app/audit/common/typesense"
	"pathwise.app/audit/core/config"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
)

type Services struct {
	stores    *store.Stores
	txRunner  TxRunner
	producer  queue.Producer
	facts     CatalogFacts
	search    typesense.Client
	workOSCfg config.WorkOSConfig
	rules     config.RulesConfig
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	producer queue.Producer,
	facts CatalogFacts,
	search typesense.Client,
	workOSCfg config.WorkOSConfig,
	rules config.RulesConfig,
) *Services {
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		producer:  producer,
		facts:     facts,
		search:    search,
		workOSCfg: workOSCfg,
		rules:     rules,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.workOSCfg)
}

func (s *Services) Users() UserService {
	return NewUserService(s.stores.Users())
}

func (s *Services) Plans() PlanService {
	return NewPlanService(s.stores.Plans(), s.txRunner, s.producer)
}

func (s *Services) Audits() AuditService {
	return NewAuditService(s.stores.Plans(), s.stores.Reports(), s.stores.Courses(), s.txRunner, s.facts, s.rules)
}

func (s *Services) Markets() MarketService {
	return NewMarketService(s.stores.Markets())
}

func (s *Services) Catalog() CatalogService {
	return NewCatalogService(s.stores.Courses(), s.stores.GECategories(), s.txRunner, s.producer, s.facts, s.search)
}

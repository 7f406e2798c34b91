package interfaces

import "context"

// TransactionalEventPublisher holds events until the owning transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	// Flush publishes the held events. Called after commit.
	Flush(ctx context.Context) error
	// Discard drops the held events. Called after rollback.
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	PlayerRepository() PlayerRepository
	WagerRepository() WagerRepository
	PendingMatchRepository() PendingMatchRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	GuildSettingsRepository() GuildSettingsRepository
	MatchSettlementRepository() MatchSettlementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// CreateForGuild creates a new UnitOfWork instance scoped to a specific guild
	CreateForGuild(guildID int64) UnitOfWork
}

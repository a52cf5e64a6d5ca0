//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"nextext/domain"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is one live session of an authenticated user.
// ID is unique for the lifetime of the process.
type Connection interface {
	ID() string
	UserID() domain.UserID
	Send(ctx context.Context, msg domain.Message) error
	Close() error
}

// ISessionRegistry tracks which users currently hold live connections.
type ISessionRegistry interface {
	Connect(user domain.UserID, conn Connection)
	Disconnect(user domain.UserID, conn Connection)
	// SendTo returns the number of connections that accepted the message.
	SendTo(ctx context.Context, user domain.UserID, msg domain.Message) int
	Broadcast(ctx context.Context, msg domain.Message, exclude domain.UserID) int
	ListOnline() []domain.UserID
}

// IMessageGateway persists messages and assigns their id and timestamp.
type IMessageGateway interface {
	Create(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, error)
	ListBetween(ctx context.Context, a, b domain.UserID) ([]domain.Message, error)
}

type IUserRepository interface {
	Create(ctx context.Context, user domain.NewUser) (domain.User, error)
	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Search(ctx context.Context, query domain.UserQuery) ([]domain.User, error)
}

// IAuthValidator turns a bearer credential into an AuthResult.
type IAuthValidator interface {
	Validate(ctx context.Context, credential string) domain.AuthResult
}

package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner runs a function inside a storage transaction. Repository
// calls made with the context passed to fn join the transaction, so a
// multi-record write set (comment counters, membership sets, owner
// aura) commits or aborts as a unit.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxnRunner implements TxnRunner using MongoDB multi-document
// transactions. Requires a replica-set deployment.
type MongoTxnRunner struct {
	client *mongo.Client
}

// NewMongoTxnRunner creates a new MongoTxnRunner
func NewMongoTxnRunner(client *mongo.Client) *MongoTxnRunner {
	return &MongoTxnRunner{client: client}
}

// WithTransaction runs fn inside a session transaction. The driver
// retries transient transaction errors internally; any error returned
// by fn aborts the transaction and propagates unchanged.
func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return storeErr("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Package mongostore реализует storage.Store поверх MongoDB.
//
// Используется mongo-driver v2, модели сериализуются через bson-теги.
// Имена коллекций и индексы собраны в ensureIndexes. Транзакции требуют
// запуска MongoDB в режиме replica set.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/magabrotheeeer/student-records/internal/storage"
)

// Коллекции.
const (
	ColAccounts = "accounts"
	ColStudents = "students"
)

// Store: MongoDB-реализация storage.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	const op = "mongostore.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Close закрывает соединение с MongoDB.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping проверяет доступность сервера.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// InTx выполняет fn внутри транзакции сессии. Операции, использующие
// переданный в fn контекст, входят в транзакцию.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "mongostore.InTx"

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(txCtx)
	})
	return err
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColAccounts, bson.D{{Key: "email", Value: 1}}, true},

		{ColStudents, bson.D{{Key: "email", Value: 1}}, true},
		{ColStudents, bson.D{{Key: "account_id", Value: 1}}, true},
		{ColStudents, bson.D{{Key: "course", Value: 1}}, false},
		{ColStudents, bson.D{{Key: "created_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

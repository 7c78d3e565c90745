package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	domain "github.com/mailcomposer/api/internal/domain"
	"github.com/mailcomposer/api/internal/repositories"
)

const (
	defaultDatabase    = "emailTemplates"
	defaultCollection  = "emailtemplates"
	defaultConnTimeout = 10 * time.Second
)

// Config holds the connection parameters.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// TemplateRepository stores snapshots in a MongoDB collection using the
// {template: [{id, html}], createdAt} document shape.
type TemplateRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ repositories.TemplateRepository = (*TemplateRepository)(nil)

type templateDocument struct {
	ID        string           `bson:"_id"`
	Template  []domain.Section `bson:"template"`
	CreatedAt time.Time        `bson:"createdAt"`
}

// Connect dials MongoDB, verifies the connection with a ping and ensures the createdAt index.
func Connect(ctx context.Context, cfg Config) (*TemplateRepository, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("mongo template repository: uri is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo template repository: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify("mongo template repository: ping", err)
	}

	repo := NewTemplateRepository(client, cfg.Database, cfg.Collection)
	_, err = repo.collection.Indexes().CreateOne(pingCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify("mongo template repository: create index", err)
	}
	return repo, nil
}

// NewTemplateRepository wraps an existing client.
func NewTemplateRepository(client *mongo.Client, database, collection string) *TemplateRepository {
	if strings.TrimSpace(database) == "" {
		database = defaultDatabase
	}
	if strings.TrimSpace(collection) == "" {
		collection = defaultCollection
	}
	return &TemplateRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (r *TemplateRepository) Insert(ctx context.Context, template domain.Template) error {
	if r == nil || r.collection == nil {
		return errors.New("mongo template repository: not initialised")
	}
	if _, err := r.collection.InsertOne(ctx, toDocument(template)); err != nil {
		return classify("mongo template repository: insert", err)
	}
	return nil
}

func (r *TemplateRepository) Latest(ctx context.Context) (domain.Template, error) {
	if r == nil || r.collection == nil {
		return domain.Template{}, errors.New("mongo template repository: not initialised")
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var doc templateDocument
	if err := r.collection.FindOne(ctx, bson.D{}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Template{}, repositories.ErrTemplateNotFound
		}
		return domain.Template{}, classify("mongo template repository: latest", err)
	}
	return fromDocument(doc), nil
}

func (r *TemplateRepository) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("mongo template repository: not initialised")
	}
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify("mongo template repository: ping", err)
	}
	return nil
}

func (r *TemplateRepository) Close(ctx context.Context) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func toDocument(template domain.Template) templateDocument {
	sections := domain.CloneSections(template.Sections)
	if sections == nil {
		sections = []domain.Section{}
	}
	return templateDocument{
		ID:        template.ID,
		Template:  sections,
		CreatedAt: template.CreatedAt.UTC(),
	}
}

func fromDocument(doc templateDocument) domain.Template {
	sections := doc.Template
	if sections == nil {
		sections = []domain.Section{}
	}
	return domain.Template{
		ID:        doc.ID,
		Sections:  sections,
		CreatedAt: doc.CreatedAt.UTC(),
	}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case mongo.IsDuplicateKeyError(err):
		return repositories.NewConflictError(op, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return repositories.NewUnavailableError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

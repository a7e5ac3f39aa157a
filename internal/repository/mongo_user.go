package repository

import (
	"context"
	"errors"
	"time"

	"socialql/internal/models"
	"socialql/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersCollection is the Mongo collection holding users.
const UsersCollection = "users"

type userDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Username  string        `bson:"username"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
	}
}

type mongoUserRepository struct {
	coll *mongo.Collection
	log  *observability.RepoLogger
}

// NewMongoUserRepository creates a user repository backed by db's users collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		coll: db.Collection(UsersCollection),
		log:  observability.NewRepoLogger(UsersCollection),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", UsersCollection)()

	doc := userDocument{
		ID:        bson.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUsername
		}
		r.log.LogError(ctx, err, "create")
		return err
	}
	user.ID = doc.ID.Hex()
	r.log.LogCreate(ctx, map[string]interface{}{"id": user.ID, "username": user.Username})
	return nil
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("get_by_username", UsersCollection)()

	var doc userDocument
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]*models.User, error) {
	defer observability.TrackQuery("list", UsersCollection)()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

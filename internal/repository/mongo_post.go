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

// PostsCollection is the Mongo collection holding posts with embedded comments and likes.
const PostsCollection = "posts"

type commentDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	Body      string        `bson:"body"`
	Username  string        `bson:"username"`
	CreatedAt time.Time     `bson:"createdAt"`
}

type likeDocument struct {
	Username  string    `bson:"username"`
	CreatedAt time.Time `bson:"createdAt"`
}

type postDocument struct {
	ID        bson.ObjectID     `bson:"_id"`
	Body      string            `bson:"body"`
	Username  string            `bson:"username"`
	User      string            `bson:"user"`
	CreatedAt time.Time         `bson:"createdAt"`
	Comments  []commentDocument `bson:"comments"`
	Likes     []likeDocument    `bson:"likes"`
}

func (d *postDocument) toModel() *models.Post {
	post := &models.Post{
		ID:        d.ID.Hex(),
		Body:      d.Body,
		Username:  d.Username,
		UserID:    d.User,
		CreatedAt: d.CreatedAt,
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		Likes:     make([]models.Like, 0, len(d.Likes)),
	}
	for _, c := range d.Comments {
		post.Comments = append(post.Comments, models.Comment{
			ID:        c.ID.Hex(),
			Body:      c.Body,
			Username:  c.Username,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, l := range d.Likes {
		post.Likes = append(post.Likes, models.Like{Username: l.Username, CreatedAt: l.CreatedAt})
	}
	return post
}

type mongoPostRepository struct {
	coll *mongo.Collection
	log  *observability.RepoLogger
}

// NewMongoPostRepository creates a post repository backed by db's posts collection.
// Comment and like updates are single-document update operators, so each is atomic.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{
		coll: db.Collection(PostsCollection),
		log:  observability.NewRepoLogger(PostsCollection),
	}
}

func (r *mongoPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackQuery("list", PostsCollection)()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	return posts, nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", PostsCollection)()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errPostNotFound()
	}
	var doc postDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errPostNotFound()
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", PostsCollection)()

	doc := postDocument{
		ID:        bson.NewObjectID(),
		Body:      post.Body,
		Username:  post.Username,
		User:      post.UserID,
		CreatedAt: post.CreatedAt,
		Comments:  []commentDocument{},
		Likes:     []likeDocument{},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	post.ID = doc.ID.Hex()
	post.Normalize()
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "username": post.Username})
	return nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", PostsCollection)()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return errPostNotFound()
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	if res.DeletedCount == 0 {
		return errPostNotFound()
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// findAndUpdate applies update to the post matching filter and returns the
// updated post, or (nil, nil) when nothing matched.
func (r *mongoPostRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	var doc postDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *mongoPostRepository) exists(ctx context.Context, oid bson.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *mongoPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	defer observability.TrackQuery("add_comment", PostsCollection)()

	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, errPostNotFound()
	}
	doc := commentDocument{
		ID:        bson.NewObjectID(),
		Body:      comment.Body,
		Username:  comment.Username,
		CreatedAt: comment.CreatedAt,
	}
	post, err := r.findAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$push": bson.M{"comments": bson.M{"$each": []commentDocument{doc}, "$position": 0}}},
	)
	if err != nil {
		r.log.LogError(ctx, err, "add_comment")
		return nil, err
	}
	if post == nil {
		return nil, errPostNotFound()
	}
	comment.ID = doc.ID.Hex()
	r.log.LogUpdate(ctx, map[string]interface{}{"id": postID, "comment_id": comment.ID, "change": "add_comment"})
	return post, nil
}

func (r *mongoPostRepository) RemoveComment(ctx context.Context, postID, commentID, username string) (*models.Post, error) {
	defer observability.TrackQuery("remove_comment", PostsCollection)()

	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, errPostNotFound()
	}

	var post *models.Post
	if cid, cidErr := bson.ObjectIDFromHex(commentID); cidErr == nil {
		// Matching on both id and author makes the ownership check part of the update.
		post, err = r.findAndUpdate(ctx,
			bson.M{"_id": oid, "comments": bson.M{"$elemMatch": bson.M{"_id": cid, "username": username}}},
			bson.M{"$pull": bson.M{"comments": bson.M{"_id": cid}}},
		)
		if err != nil {
			r.log.LogError(ctx, err, "remove_comment")
			return nil, err
		}
	}
	if post != nil {
		r.log.LogUpdate(ctx, map[string]interface{}{"id": postID, "comment_id": commentID, "change": "remove_comment"})
		return post, nil
	}

	found, err := r.exists(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errPostNotFound()
	}
	return nil, errCommentForbidden()
}

func (r *mongoPostRepository) ToggleLike(ctx context.Context, postID, username string, at time.Time) (*models.Post, error) {
	defer observability.TrackQuery("toggle_like", PostsCollection)()

	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, errPostNotFound()
	}

	// Unlike if the like exists.
	post, err := r.findAndUpdate(ctx,
		bson.M{"_id": oid, "likes.username": username},
		bson.M{"$pull": bson.M{"likes": bson.M{"username": username}}},
	)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return nil, err
	}
	if post != nil {
		r.log.LogUpdate(ctx, map[string]interface{}{"id": postID, "change": "unlike"})
		return post, nil
	}

	// Otherwise like; the $ne guard keeps at most one like per username.
	post, err = r.findAndUpdate(ctx,
		bson.M{"_id": oid, "likes.username": bson.M{"$ne": username}},
		bson.M{"$push": bson.M{"likes": bson.M{
			"$each":     []likeDocument{{Username: username, CreatedAt: at}},
			"$position": 0,
		}}},
	)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return nil, err
	}
	if post != nil {
		r.log.LogUpdate(ctx, map[string]interface{}{"id": postID, "change": "like"})
		return post, nil
	}

	// Neither matched: the post is gone, or a concurrent request liked it in between.
	return r.GetByID(ctx, postID)
}

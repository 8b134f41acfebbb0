package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/secret-tech/aag-backend-go/internal/domain"
)

type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection(userCollection)}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": login})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// AddConversation records membership with a single $addToSet update, so
// concurrent establishment attempts cannot produce duplicate list entries.
func (r *UserRepo) AddConversation(ctx context.Context, userID, conversationID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"conversations": conversationID}},
	)
	if err != nil {
		return fmt.Errorf("add conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return nil
}

func (r *UserRepo) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"conversations": conversationID})
	if err != nil {
		return 0, fmt.Errorf("count conversation members: %w", err)
	}
	return n, nil
}

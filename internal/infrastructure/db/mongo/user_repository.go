package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/passport/internal/core/domain"
)

const usersCollection = "users"

// UserRepository stores passport accounts in MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserName     string             `bson:"user_name"`
	UserEmail    string             `bson:"user_email"`
	PasswordHash string             `bson:"password_hash"`
	Nickname     string             `bson:"nickname,omitempty"`
	Phone        string             `bson:"phone,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	Bio          string             `bson:"bio,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes backing user name and email
// uniqueness. It is safe to call on every start.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_name")},
		{Keys: bson.D{{Key: "user_email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_email")},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.coll.InsertOne(ctx, toMongoUser(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByEmailOrUserName(ctx context.Context, email, userName string) (*domain.User, error) {
	filter, ok := emailOrUserNameFilter(email, userName)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) Update(ctx context.Context, id string, changes domain.UserChanges) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": changesToSet(changes)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateUser
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter any) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// emailOrUserNameFilter ORs the non-empty criteria. ok is false when both
// are empty.
func emailOrUserNameFilter(email, userName string) (bson.M, bool) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"user_email": email})
	}
	if userName != "" {
		or = append(or, bson.M{"user_name": userName})
	}
	switch len(or) {
	case 0:
		return nil, false
	case 1:
		return or[0].(bson.M), true
	default:
		return bson.M{"$or": or}, true
	}
}

func changesToSet(c domain.UserChanges) bson.M {
	set := bson.M{"updated_at": c.UpdatedAt.Unix()}
	fields := []struct {
		key string
		val *string
	}{
		{"user_name", c.UserName},
		{"user_email", c.UserEmail},
		{"password_hash", c.PasswordHash},
		{"nickname", c.Nickname},
		{"phone", c.Phone},
		{"avatar_url", c.AvatarURL},
		{"bio", c.Bio},
	}
	for _, f := range fields {
		if f.val != nil {
			set[f.key] = *f.val
		}
	}
	return set
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		UserName:     u.UserName,
		UserEmail:    u.UserEmail,
		PasswordHash: u.PasswordHash,
		Nickname:     u.Nickname,
		Phone:        u.Phone,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		UserName:     mu.UserName,
		UserEmail:    mu.UserEmail,
		PasswordHash: mu.PasswordHash,
		Nickname:     mu.Nickname,
		Phone:        mu.Phone,
		AvatarURL:    mu.AvatarURL,
		Bio:          mu.Bio,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

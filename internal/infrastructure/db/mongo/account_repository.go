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

	"github.com/mathvisuals/account-api/internal/core/domain"
	"github.com/mathvisuals/account-api/internal/core/ports"
)

const accountsCollection = "accounts"

// AccountRepository persists accounts in a single MongoDB collection.
// loginField names the unique login-key field ("email" or "username"); the
// unique index on it is what turns duplicate signups into conflicts.
type AccountRepository struct {
	coll       *mongo.Collection
	loginField string
}

func NewAccountRepository(db *mongo.Database, loginField string) *AccountRepository {
	if loginField == "" {
		loginField = "email"
	}
	return &AccountRepository{coll: db.Collection(accountsCollection), loginField: loginField}
}

type accountDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Username          string             `bson:"username,omitempty"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password"`
	Admin             bool               `bson:"admin"`
	SubscriptionTier  string             `bson:"subscription"`
	Verified          bool               `bson:"verified"`
	VerificationToken string             `bson:"verification_token,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		Admin:             d.Admin,
		SubscriptionTier:  d.SubscriptionTier,
		Verified:          d.Verified,
		VerificationToken: d.VerificationToken,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// Create inserts a new account document. A duplicate key on the login field
// maps to domain.ErrAccountExists; the caller performs no existence
// pre-check.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		Name:              account.Name,
		Username:          account.Username,
		Email:             account.Email,
		PasswordHash:      account.PasswordHash,
		Admin:             account.Admin,
		SubscriptionTier:  account.SubscriptionTier,
		Verified:          account.Verified,
		VerificationToken: account.VerificationToken,
		CreatedAt:         account.CreatedAt,
		UpdatedAt:         account.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByLoginKey retrieves an account by the configured login field.
func (r *AccountRepository) FindByLoginKey(ctx context.Context, loginKey string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{r.loginField: loginKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByID retrieves an account by its hex object id.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// VerifyByToken flips verified and clears the token in one conditional
// FindOneAndUpdate. Of two racing calls with the same token exactly one
// matches; the other sees no document and reports an invalid token.
func (r *AccountRepository) VerifyByToken(ctx context.Context, token string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"verification_token": token, "verified": false}
	update := bson.M{
		"$set":   bson.M{"verified": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"verification_token": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("verify account: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateByID applies a partial $set to the account.
func (r *AccountRepository) UpdateByID(ctx context.Context, id string, update ports.AccountUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}
	if update.Admin != nil {
		set["admin"] = *update.Admin
	}
	if update.SubscriptionTier != nil {
		set["subscription"] = *update.SubscriptionTier
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DeleteByID hard-deletes the account and returns the removed record.
func (r *AccountRepository) DeleteByID(ctx context.Context, id string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	var doc accountDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("delete account: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique index on the login-key field and a
// sparse index on the verification token.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: r.loginField, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

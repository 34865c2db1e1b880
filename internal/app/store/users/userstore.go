package userstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/pulsehub/internal/app/system/inputval"
	"github.com/dalemusser/pulsehub/internal/app/system/normalize"
	"github.com/dalemusser/pulsehub/internal/app/system/status"
	"github.com/dalemusser/pulsehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Search returns up to limit users whose display name starts with term,
// matched case- and accent-insensitively. An empty term lists users from
// the top of the alphabet instead of matching nothing.
func (s *Store) Search(ctx context.Context, term string, limit int64) ([]models.User, error) {
	filter := bson.M{}
	if folded := normalize.Fold(term); folded != "" {
		filter["display_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(folded)}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "display_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned by Authenticate when the credentials are
	// correct but the account has been disabled.
	ErrAccountDisabled = errors.New("this account has been disabled")

	errBadEmail       = errors.New("email address is not valid")
	errBadDisplayName = fmt.Errorf("display name must be 1-%d characters", inputval.MaxDisplayNameLen)
	errBadPassword    = fmt.Errorf("password must be %d-%d characters", inputval.MinPasswordLength, inputval.MaxPasswordLength)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

// Create inserts a new user after normalizing & validating fields.
// The plaintext password is hashed here and never stored.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.DisplayName = normalize.DisplayName(u.DisplayName)
	u.DisplayNameCI = normalize.Fold(u.DisplayName)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = status.Active
	}

	if !inputval.IsValidDisplayName(u.DisplayName) {
		return models.User{}, errBadDisplayName
	}
	if !inputval.IsValidEmail(u.Email) {
		return models.User{}, errBadEmail
	}
	if !inputval.IsValidPassword(password) {
		return models.User{}, errBadPassword
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash

	// Timestamps
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	// Insert
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks an email/password pair against the stored hash.
// Unknown emails and wrong passwords both return ErrInvalidCredentials;
// a disabled account with correct credentials returns ErrAccountDisabled.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status == status.Disabled {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// EmailExists checks whether any user already has this email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// hashPassword hashes a password using bcrypt with a cost of 12.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"fleetledger/models"
)

// ErrPhoneTaken is returned when an account already exists for a phone number.
var ErrPhoneTaken = errors.New("phone already registered")

// UserRepository defines the interface for account operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
	// FindOwnersByDelegate lists the accounts that granted phone a role.
	FindOwnersByDelegate(ctx context.Context, phone string) ([]*models.User, error)
	// ListOwners returns every owner account, for scheduled scans.
	ListOwners(ctx context.Context) ([]*models.User, error)
}

// StoreUserRepo keeps users in a document Store (Mongo or memory).
type StoreUserRepo struct {
	Store Store[models.User]
}

func NewStoreUserRepo(store Store[models.User]) *StoreUserRepo {
	return &StoreUserRepo{Store: store}
}

func (r *StoreUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	existing, err := r.GetUserByPhone(ctx, user.Phone)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrPhoneTaken
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	// the unique phone index settles parallel first logins
	if err := r.Store.Insert(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPhoneTaken
		}
		return err
	}
	return nil
}

func (r *StoreUserRepo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.Store.FindOne(ctx, userID, userID)
}

func (r *StoreUserRepo) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	users, err := r.Store.Find(ctx, "", Filter{"phone": phone})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (r *StoreUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	return r.Store.Replace(ctx, user.UserID, user.UserID, user, nil)
}

func (r *StoreUserRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.Store.DeleteMany(ctx, userID, nil)
	return err
}

func (r *StoreUserRepo) FindOwnersByDelegate(ctx context.Context, phone string) ([]*models.User, error) {
	return r.Store.Find(ctx, "", Filter{"delegates.phone": phone})
}

func (r *StoreUserRepo) ListOwners(ctx context.Context) ([]*models.User, error) {
	return r.Store.Find(ctx, "", Filter{"role": models.RoleOwner})
}

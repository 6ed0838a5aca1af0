package memstore

import (
	"context"
	"strings"

	"github.com/xiebiao/storefront/internal/domain/user"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

var errDuplicateOrderNo = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号重复")

// UserRepo 实现user.Repository
type UserRepo struct{ s *Store }

// Users 用户仓储
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	return r.s.write(ctx, "", func(d *state) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return apperrors.ErrEmailDuplicate
			}
		}
		u.ID = d.nextID()
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var out user.User
	err := r.s.read("", func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var out user.User
	err := r.s.read("", func(d *state) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				out = u
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

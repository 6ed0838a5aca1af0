package user

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
)

// RegisterUseCase 用户注册用例
// 邮箱在auth.admin_emails名单中的用户注册为管理员,其余为普通顾客
type RegisterUseCase struct {
	userService user.Service
	auth        config.AuthConfig
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, auth config.AuthConfig) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
		auth:        auth,
	}
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	role := user.RoleCustomer
	if uc.auth.IsAdminEmail(req.Email) {
		role = user.RoleAdmin
	}

	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.Nickname, role)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Uint("user_id", u.ID).Str("role", string(u.Role)).Msg("用户注册")

	// 不直接返回领域实体:领域模型变更不影响API契约
	return toUserInfo(u), nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// UserInfo 用户信息(不含密码)
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func toUserInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}
}

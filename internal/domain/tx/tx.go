// Package tx 事务边界
//
// 应用层通过Manager开启原子工作单元,fn内所有仓储调用共享同一事务:
// fn返回error时回滚,返回nil时提交。
package tx

import "context"

// Manager 事务管理器
type Manager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

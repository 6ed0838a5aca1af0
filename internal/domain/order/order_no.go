package order

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateOrderNo 生成订单号
// 格式:SF + 年月日时分秒 + 6位随机数,如 SF20240101120000123456
// 数据库order_no上有唯一索引,极小概率冲突时插入失败,整个下单事务回滚
func GenerateOrderNo() string {
	return fmt.Sprintf("SF%s%06d", time.Now().Format("20060102150405"), rand.Intn(1000000))
}

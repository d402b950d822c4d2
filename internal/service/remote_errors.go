package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

// isSoftRemoteErr 远端写入的「软失败」判定
// 软失败 = 网络超时或后端暂时不可用：乐观写入保留，错误被吞掉，
// 依赖下一次全量拉取对齐。其余错误（权限、约束、逻辑错）是硬失败。
func isSoftRemoteErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception; 57P03: cannot_connect_now;
		// 53300: too_many_connections
		if pqErr.Code.Class() == "08" || pqErr.Code == "57P03" || pqErr.Code == "53300" {
			return true
		}
	}
	return false
}

package model

import "errors"

// 业务错误
//
// NotFound 和 Unauthorized 原样上抛到边界层；ConstraintViolation
// （自我关系、唯一约束竞争）在service层折叠为"未执行"的布尔结果；
// 缓存不可用从不上抛，service层直接降级读库。
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConstraintViolation = errors.New("constraint violation")
)

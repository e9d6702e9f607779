package domain

import "errors"

// Rejection 交易被规则校验拒绝
// 原因原样透出给调用方，不重试
type Rejection struct {
	Reason string
}

// Error 实现 error 接口
func (r *Rejection) Error() string {
	return r.Reason
}

// NewRejection 创建拒绝错误
func NewRejection(reason string) *Rejection {
	return &Rejection{Reason: reason}
}

// IsRejection 判断错误是否为规则拒绝
func IsRejection(err error) bool {
	var rejection *Rejection
	return errors.As(err, &rejection)
}

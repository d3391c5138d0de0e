/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS错误类型
 */
package whois

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedQuery = errors.New("unrecognized query")
	ErrTldNotFound       = errors.New("tld not found")
	ErrTldUnsupported    = errors.New("tld unsupported")
	ErrNoWhoisServer     = errors.New("no whois server")
	ErrTimeout           = errors.New("timeout")
	ErrConnection        = errors.New("connection error")
)

// QueryError 携带出错的查询内容，errors.Is 可匹配 Kind
type QueryError struct {
	Kind  error
	Query string
	Msg   string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *QueryError) Is(target error) bool {
	return target == e.Kind
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(kind error, query, format string, args ...interface{}) *QueryError {
	return &QueryError{
		Kind:  kind,
		Query: query,
		Msg:   fmt.Sprintf(format, args...),
	}
}

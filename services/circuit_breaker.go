/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-10 16:09:00
 * @Description: 熔断器模式实现
 */
package services

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen 熔断器处于开启状态
var ErrCircuitOpen = errors.New("circuit open")

// CircuitState 熔断器状态
type CircuitState int

const (
	StateClosed   CircuitState = iota // 关闭状态 - 正常工作
	StateOpen                         // 开启状态 - 熔断生效
	StateHalfOpen                     // 半开状态 - 尝试恢复
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 实现熔断器模式
type CircuitBreaker struct {
	mutex            sync.Mutex
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailureTime  time.Time
	onStateChange    func(from, to CircuitState)
	now              func() time.Time
}

// NewCircuitBreaker 创建新的熔断器
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// OnStateChange 设置状态变化回调，回调在持有锁时调用，不能再访问熔断器
func (cb *CircuitBreaker) OnStateChange(f func(from, to CircuitState)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = f
}

// Execute 执行受熔断器保护的操作
func (cb *CircuitBreaker) Execute(operation func() error) error {
	if !cb.AllowRequest() {
		return ErrCircuitOpen
	}

	err := operation()
	cb.RecordResult(err == nil)
	return err
}

// AllowRequest 判断是否允许请求通过，开启状态超过重置时间后转为半开
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// RecordResult 记录请求结果
func (cb *CircuitBreaker) RecordResult(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if success {
		cb.failureCount = 0
		if cb.state == StateHalfOpen {
			cb.transition(StateClosed)
		}
		return
	}

	cb.lastFailureTime = cb.now()
	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// 半开状态下失败立即转为开启状态
		cb.transition(StateOpen)
	}
}

// State 当前状态
func (cb *CircuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Status 返回可序列化的状态信息
func (cb *CircuitBreaker) Status() map[string]interface{} {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	status := map[string]interface{}{
		"state":            cb.state.String(),
		"failureCount":     cb.failureCount,
		"failureThreshold": cb.failureThreshold,
		"resetTimeout":     cb.resetTimeout.String(),
	}
	if !cb.lastFailureTime.IsZero() {
		status["lastFailureTime"] = cb.lastFailureTime.UTC().Format(time.RFC3339)
	}
	return status
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.failureCount = 0
	}
	if cb.onStateChange != nil && from != to {
		cb.onStateChange(from, to)
	}
}

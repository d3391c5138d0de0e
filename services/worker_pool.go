/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-04-10 16:08:00
 * @Description: 工作池模式实现，批量WHOIS查询在此并发执行
 */
package services

import (
	"context"
	"sync"
)

// WorkerPool 工作池结构体
type WorkerPool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	workers int

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool 创建一个指定工作者数量的工作池
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		tasks:   make(chan func(), workers*2), // 缓冲大小为工作者数量的两倍
		workers: workers,
	}
}

// Start 启动工作池
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
}

// Size 工作者数量
func (p *WorkerPool) Size() int {
	return p.workers
}

// Submit 提交任务到工作池，队列已满或已停止时返回false
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		return false // 任务队列已满
	}
}

// SubmitWithContext 阻塞等待队列空位，直到上下文结束
func (p *WorkerPool) SubmitWithContext(ctx context.Context, task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop 停止工作池，等待已提交的任务完成
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

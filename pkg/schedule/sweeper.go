// Package schedule 周期后台任务调度
// 行情 tick、熔断清理与止损巡检都以独立可取消的周期任务运行，
// 单轮失败或 panic 只记录日志，循环继续等待下一个周期
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wyfcoding/pkg/logging"
)

// Task 单轮任务
type Task func(ctx context.Context) error

// Sweeper 命名周期任务
type Sweeper struct {
	name     string
	interval time.Duration
	task     Task

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper 创建周期任务，interval 必须为正
func NewSweeper(name string, interval time.Duration, task Task) *Sweeper {
	return &Sweeper{
		name:     name,
		interval: interval,
		task:     task,
	}
}

// Start 启动周期循环，重复调用只生效一次
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	go s.loop(ctx, done)
	logging.Info(ctx, "sweeper started", "name", s.name, "interval", s.interval.String())
}

// Stop 发出停止信号并等待当前轮次结束
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logging.Info(context.Background(), "sweeper stopped", "name", s.name)
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				logging.Error(ctx, "sweep iteration failed", "name", s.name, "error", err)
			}
		}
	}
}

// RunOnce 同步执行一轮任务，panic 被捕获并转为错误返回
func (s *Sweeper) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep %s panicked: %v", s.name, r)
		}
	}()
	return s.task(ctx)
}

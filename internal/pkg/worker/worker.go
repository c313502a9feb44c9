package worker

import (
	"context"
	"errors"
	"storefront/internal/pkg/events"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventTask 待投递的订单事件
type EventTask struct {
	Event   events.OrderEvent
	Retry   int      // 重试次数
	Targets []string // 只重投这些目标，空表示全部
}

// WorkerPool 在请求路径之外投递事件，失败进入重试队列
type WorkerPool struct {
	TaskQueue  chan EventTask
	RetryQueue chan EventTask // 重试队列
	Sink       events.Sink
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	Backoff    time.Duration // 第 n 次重试等待 n*Backoff
	Timeout    time.Duration // 单次投递超时

	log  *zap.Logger
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewWorkerPool(sink events.Sink, workerNum int, bufferSize int, log *zap.Logger) *WorkerPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		TaskQueue:  make(chan EventTask, bufferSize),
		RetryQueue: make(chan EventTask, bufferSize/2+1),
		Sink:       sink,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		Backoff:    time.Second,
		Timeout:    5 * time.Second,
		log:        log,
		quit:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.log.Info("worker pool started", zap.Int("workers", p.WorkerNum), zap.String("sink", p.Sink.Name()))
}

// Stop 停止接收新任务，处理完主队列中剩余任务后返回
func (p *WorkerPool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.TaskQueue:
			p.handle(id, task)
		case <-p.quit:
			for {
				select {
				case task := <-p.TaskQueue:
					p.handle(id, task)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) handle(id int, task EventTask) {
	err := p.processTask(task)
	if err == nil {
		return
	}

	log := p.log.With(
		zap.Int("worker", id),
		zap.String("order_id", task.Event.OrderID),
		zap.String("status", task.Event.Status),
		zap.Error(err),
	)

	if task.Retry >= p.MaxRetry {
		log.Error("event exceeded max retries, dropped", zap.Int("retry", task.Retry))
		return
	}

	var de *events.DeliveryError
	if errors.As(err, &de) {
		task.Targets = de.Failed
	}

	task.Retry++
	select {
	case p.RetryQueue <- task:
		log.Warn("event delivery failed, queued for retry", zap.Int("attempt", task.Retry), zap.Int("max", p.MaxRetry))
	default:
		log.Error("retry queue full, event dropped")
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			timer := time.NewTimer(time.Duration(task.Retry) * p.Backoff)
			select {
			case <-timer.C:
			case <-p.quit:
				timer.Stop()
				p.log.Warn("pool stopping, pending retry dropped", zap.String("order_id", task.Event.OrderID))
				return
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.log.Error("main queue full, retry dropped", zap.String("order_id", task.Event.OrderID))
			}
		case <-p.quit:
			return
		}
	}
}

func (p *WorkerPool) processTask(task EventTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()
	if len(task.Targets) > 0 {
		if r, ok := p.Sink.(events.Retargetable); ok {
			return r.PublishTo(ctx, task.Event, task.Targets)
		}
	}
	return p.Sink.Publish(ctx, task.Event)
}

// AddTask 非阻塞入队，队列满或已停止时丢弃
func (p *WorkerPool) AddTask(event events.OrderEvent) bool {
	select {
	case <-p.quit:
		p.log.Warn("worker pool stopped, event dropped", zap.String("order_id", event.OrderID))
		return false
	default:
	}

	select {
	case p.TaskQueue <- EventTask{Event: event}:
		return true
	default:
		p.log.Error("worker pool queue full, event dropped", zap.String("order_id", event.OrderID))
		return false
	}
}

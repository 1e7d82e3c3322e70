package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.switcher/pkg/proto"
)

// CommandHandler 游戏命令处理器接口
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd *proto.GameCommand) *proto.GameReply
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount    int           // Worker 数量
	BufferSize     int           // 消息缓冲区大小
	CommandTimeout time.Duration // 单条命令处理超时
}

// CommandSubscriber 游戏命令订阅器
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	chanMu       sync.RWMutex // 保护 msgChan 的关闭
	stopped      bool
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	// 设置默认值
	if config.WorkerCount <= 0 {
		config.WorkerCount = 32
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 4096
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = 5 * time.Second
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "CommandSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	// 创建带缓冲的消息通道
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	// 创建可取消的上下文
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	// 启动 Worker Pool
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	// 使用队列组实现负载均衡
	sub, err := s.nc.QueueSubscribe(SubjectGameCommand, QueueGroupSwitcher, s.enqueue)
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", SubjectGameCommand,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

// enqueue 订阅回调，缓冲区满或已停止时直接回复繁忙，让调用方重试
func (s *CommandSubscriber) enqueue(msg *nats.Msg) {
	s.chanMu.RLock()
	defer s.chanMu.RUnlock()

	if !s.stopped {
		select {
		case s.msgChan <- msg:
			return
		default:
			s.logger.Warn("Command buffer full, rejecting command", "bufferSize", s.config.BufferSize)
		}
	}
	s.respond(msg, busyReply(msg.Data))
}

// worker 工作协程
func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			cmdCtx, cancel := context.WithTimeout(ctx, s.config.CommandTimeout)
			reply := s.process(cmdCtx, msg.Data)
			cancel()
			s.respond(msg, reply)
		}
	}
}

// process 解码并分发一条命令
func (s *CommandSubscriber) process(ctx context.Context, data []byte) *proto.GameReply {
	var cmd proto.GameCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.logger.Error("Failed to unmarshal command", "error", err)
		return &proto.GameReply{
			Code:      "BAD_REQUEST",
			Message:   "invalid command payload",
			Timestamp: time.Now().UnixMilli(),
		}
	}

	s.logger.Debug("Received command", "type", cmd.Type, "gameId", cmd.GameId, "playerId", cmd.PlayerId)
	return s.handler.HandleCommand(ctx, &cmd)
}

// respond 有 reply subject 时回复
func (s *CommandSubscriber) respond(msg *nats.Msg, reply *proto.GameReply) {
	if msg.Reply == "" || reply == nil {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "error", err)
		return
	}
	if err := s.nc.Publish(msg.Reply, data); err != nil {
		s.logger.Error("Failed to send reply", "error", err)
	}
}

func busyReply(data []byte) *proto.GameReply {
	var cmd struct {
		RequestId string `json:"request_id"`
	}
	_ = json.Unmarshal(data, &cmd)
	return &proto.GameReply{
		RequestId: cmd.RequestId,
		Code:      "SERVER_BUSY",
		Message:   "server busy, retry later",
		Timestamp: time.Now().UnixMilli(),
	}
}

// Stop 停止订阅
func (s *CommandSubscriber) Stop() error {
	// 先取消订阅，不再接收新消息
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	// 关闭通道，worker 处理完已缓冲的命令后退出
	s.chanMu.Lock()
	if s.msgChan != nil && !s.stopped {
		close(s.msgChan)
	}
	s.stopped = true
	s.chanMu.Unlock()
	s.wg.Wait()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 获取缓冲区使用情况（用于监控）
func (s *CommandSubscriber) GetBufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}

// Package event 进程内事件总线（asaskevich/EventBus）
//
// Join 流程在每个阶段开始、完成或失败时发布 types.StageEvent，
// CLI 订阅后渲染进度。
package event

import (
	"fmt"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/event"
)

// EventTypeJoinStage Join 阶段事件，处理器签名为 func(types.StageEvent)
const EventTypeJoinStage event.EventType = "join:stage"

// EventBus 事件总线
type EventBus struct {
	bus       evbus.Bus
	published atomic.Uint64
}

var _ event.EventBus = (*EventBus)(nil)

func New() *EventBus {
	return &EventBus{bus: evbus.New()}
}

func (eb *EventBus) Subscribe(topic event.EventType, handler interface{}) error {
	if err := eb.bus.Subscribe(string(topic), handler); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (eb *EventBus) SubscribeAsync(topic event.EventType, handler interface{}, transactional bool) error {
	if err := eb.bus.SubscribeAsync(string(topic), handler, transactional); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (eb *EventBus) Unsubscribe(topic event.EventType, handler interface{}) error {
	if err := eb.bus.Unsubscribe(string(topic), handler); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}
	return nil
}

// Publish 发布事件；同步处理器在返回前执行完毕
func (eb *EventBus) Publish(topic event.EventType, args ...interface{}) {
	eb.published.Add(1)
	eb.bus.Publish(string(topic), args...)
}

func (eb *EventBus) HasCallback(topic event.EventType) bool { return eb.bus.HasCallback(string(topic)) }

func (eb *EventBus) WaitAsync() { eb.bus.WaitAsync() }

// Published 已发布事件总数（含无订阅者的事件）
func (eb *EventBus) Published() uint64 { return eb.published.Load() }

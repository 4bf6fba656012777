// Package event 进程内事件总线接口
package event

// EventType 事件主题
type EventType string

// EventBus 事件总线
//
// handler 为任意函数，其参数列表需与 Publish 传入的 args 一致，
// 否则 Publish 时由底层实现 panic。
type EventBus interface {
	Subscribe(topic EventType, handler interface{}) error
	// SubscribeAsync transactional 为 true 时同一处理器的调用串行化
	SubscribeAsync(topic EventType, handler interface{}, transactional bool) error
	Unsubscribe(topic EventType, handler interface{}) error

	Publish(topic EventType, args ...interface{})
	HasCallback(topic EventType) bool
	// WaitAsync 阻塞到所有异步处理器返回
	WaitAsync()
}

// Package broadcast fans typed messages out to topic subscribers.
//
// MemoryBroadcaster works inside one process; RedisBroadcaster uses Redis
// pub/sub so that every instance of a service sees every message.
//
//	events := broadcast.NewMemoryBroadcaster[Event](16)
//	sub, err := events.Subscribe(ctx, userID)
//	if err != nil {
//		return err
//	}
//	defer sub.Close()
//
//	for msg := range sub.Receive() {
//		handle(msg.Data)
//	}
//
// Delivery is best-effort. A subscriber whose buffer is full misses
// messages instead of slowing down publishers.
package broadcast
